package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/infrastructure/metrics"
)

// EventHandler processes a decoded event. Handlers must be idempotent under
// the event id: delivery is at-least-once.
type EventHandler interface {
	Handle(ctx context.Context, event *domain.DecodedEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *domain.DecodedEvent) error

func (f EventHandlerFunc) Handle(ctx context.Context, event *domain.DecodedEvent) error {
	return f(ctx, event)
}

// DedupeStore remembers processed event ids so redeliveries collapse into a
// single effect.
type DedupeStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// SubscriberConfig configures a Subscriber.
type SubscriberConfig struct {
	Client    *redis.Client
	Group     string
	Consumer  string
	Topics    []string
	Handler   EventHandler
	Dedupe    DedupeStore
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	BlockTime time.Duration
	MinIdle   time.Duration
	BatchSize int64
}

// Subscriber consumes events from Redis streams through a consumer group.
// Messages are acknowledged only after the handler succeeds, so a crashed
// consumer's pending entries are reclaimed and redelivered.
type Subscriber struct {
	client    *redis.Client
	group     string
	consumer  string
	topics    []string
	handler   EventHandler
	dedupe    DedupeStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	blockTime time.Duration
	minIdle   time.Duration
	batchSize int64
}

// NewSubscriber creates a Subscriber.
func NewSubscriber(cfg SubscriberConfig) *Subscriber {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BlockTime == 0 {
		cfg.BlockTime = 5 * time.Second
	}
	if cfg.MinIdle == 0 {
		cfg.MinIdle = time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 32
	}

	return &Subscriber{
		client:    cfg.Client,
		group:     cfg.Group,
		consumer:  cfg.Consumer,
		topics:    cfg.Topics,
		handler:   cfg.Handler,
		dedupe:    cfg.Dedupe,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		blockTime: cfg.BlockTime,
		minIdle:   cfg.MinIdle,
		batchSize: cfg.BatchSize,
	}
}

// Start consumes until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.ensureGroups(ctx); err != nil {
		return err
	}

	s.logger.Info("event subscriber started",
		slog.String("group", s.group),
		slog.String("consumer", s.consumer),
		slog.Int("topics", len(s.topics)))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("event subscriber stopped")
			return ctx.Err()
		default:
		}

		s.reclaimStale(ctx)

		if err := s.readBatch(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			s.logger.Error("event read failed", slog.String("error", err.Error()))

			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *Subscriber) ensureGroups(ctx context.Context) error {
	for _, topic := range s.topics {
		err := s.client.XGroupCreateMkStream(ctx, topic, s.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create consumer group for %s: %w", topic, err)
		}
	}
	return nil
}

// reclaimStale takes over pending entries abandoned by dead consumers.
func (s *Subscriber) reclaimStale(ctx context.Context) {
	for _, topic := range s.topics {
		msgs, _, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   topic,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.minIdle,
			Start:    "0-0",
			Count:    s.batchSize,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			continue
		}
		for _, msg := range msgs {
			s.process(ctx, topic, msg)
		}
	}
}

func (s *Subscriber) readBatch(ctx context.Context) error {
	streams := make([]string, 0, len(s.topics)*2)
	streams = append(streams, s.topics...)
	for range s.topics {
		streams = append(streams, ">")
	}

	result, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  streams,
		Count:    s.batchSize,
		Block:    s.blockTime,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			s.process(ctx, stream.Stream, msg)
		}
	}

	return nil
}

// process handles one message. Acked on success or on dedupe hit; left
// pending on handler failure so the reclaim path redelivers it.
func (s *Subscriber) process(ctx context.Context, topic string, msg redis.XMessage) {
	eventID, _ := msg.Values[fieldEventID].(string)
	eventType, _ := msg.Values[fieldEventType].(string)
	payload, _ := msg.Values[fieldPayload].(string)

	if eventID == "" || eventType == "" {
		s.logger.Warn("malformed event message, dropping",
			slog.String("topic", topic),
			slog.String("message_id", msg.ID))
		s.ack(ctx, topic, msg.ID)
		return
	}

	if s.dedupe != nil {
		seen, err := s.dedupe.Seen(ctx, eventID)
		if err != nil {
			s.logger.Error("dedupe lookup failed", slog.String("error", err.Error()))
			return
		}
		if seen {
			if s.metrics != nil {
				s.metrics.EventsDeduped.Inc()
			}
			s.ack(ctx, topic, msg.ID)
			return
		}
	}

	decoded, err := domain.DecodeEvent(eventType, []byte(payload))
	if err != nil {
		if errors.Is(err, domain.ErrUnknownEventType) {
			// Unknown kinds are a contract violation, not a transient
			// failure; retrying cannot fix them.
			s.logger.Error("unknown event type, dropping",
				slog.String("event_id", eventID),
				slog.String("event_type", eventType))
			s.ack(ctx, topic, msg.ID)
			return
		}
		s.logger.Error("event decode failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()))
		s.ack(ctx, topic, msg.ID)
		return
	}

	if err := s.handler.Handle(ctx, decoded); err != nil {
		s.logger.Error("event handler failed",
			slog.String("event_id", eventID),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}

	if s.dedupe != nil {
		if err := s.dedupe.Mark(ctx, eventID); err != nil {
			s.logger.Warn("dedupe mark failed", slog.String("error", err.Error()))
		}
	}

	if s.metrics != nil {
		s.metrics.EventsConsumed.WithLabelValues(eventType).Inc()
	}

	s.ack(ctx, topic, msg.ID)
}

func (s *Subscriber) ack(ctx context.Context, topic, msgID string) {
	if err := s.client.XAck(ctx, topic, s.group, msgID).Err(); err != nil {
		s.logger.Warn("event ack failed",
			slog.String("topic", topic),
			slog.String("message_id", msgID),
			slog.String("error", err.Error()))
	}
}
