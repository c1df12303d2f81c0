package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeStore remembers consumed event ids so redelivered events collapse
// into a single effect. Entries expire after the TTL; redelivery beyond that
// horizon relies on handlers being idempotent anyway.
type DedupeStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDedupeStore creates a new DedupeStore.
func NewDedupeStore(client *redis.Client, ttl time.Duration) *DedupeStore {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &DedupeStore{
		client: client,
		prefix: "consumed:",
		ttl:    ttl,
	}
}

// Seen reports whether an event id has been processed.
func (s *DedupeStore) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.client.Get(ctx, s.prefix+eventID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Mark records an event id as processed.
func (s *DedupeStore) Mark(ctx context.Context, eventID string) error {
	return s.client.Set(ctx, s.prefix+eventID, "1", s.ttl).Err()
}
