package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nmarks/payflow/internal/domain"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []*domain.DecodedEvent
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, event *domain.DecodedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) received() []*domain.DecodedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events
}

type memoryDedupe struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemoryDedupe() *memoryDedupe {
	return &memoryDedupe{seen: make(map[string]bool)}
}

func (d *memoryDedupe) Seen(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[eventID], nil
}

func (d *memoryDedupe) Mark(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[eventID] = true
	return nil
}

func newTestSubscriber(t *testing.T, handler EventHandler, dedupe DedupeStore) (*Subscriber, *redis.Client) {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sub := NewSubscriber(SubscriberConfig{
		Client:    client,
		Group:     "test-group",
		Consumer:  "test-consumer",
		Topics:    []string{"events.payment"},
		Handler:   handler,
		Dedupe:    dedupe,
		BlockTime: 50 * time.Millisecond,
	})
	return sub, client
}

func addStreamEvent(t *testing.T, client *redis.Client, values map[string]any) {
	t.Helper()

	err := client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: "events.payment",
		Values: values,
	}).Err()
	if err != nil {
		t.Fatalf("xadd failed: %v", err)
	}
}

func pendingCount(t *testing.T, client *redis.Client) int64 {
	t.Helper()

	pending, err := client.XPending(context.Background(), "events.payment", "test-group").Result()
	if err != nil {
		t.Fatalf("xpending failed: %v", err)
	}
	return pending.Count
}

func TestSubscriber_ProcessAndAck(t *testing.T) {
	handler := &recordingHandler{}
	dedupe := newMemoryDedupe()
	sub, client := newTestSubscriber(t, handler, dedupe)
	ctx := context.Background()

	addStreamEvent(t, client, map[string]any{
		fieldEventID:   "ev-1",
		fieldEventType: domain.EventTypePaymentCompleted,
		fieldPayload:   `{"payment_id":"pay-1","owner_id":"user-1","amount":"100","status":"completed"}`,
	})

	if err := sub.ensureGroups(ctx); err != nil {
		t.Fatalf("ensureGroups failed: %v", err)
	}
	if err := sub.readBatch(ctx); err != nil {
		t.Fatalf("readBatch failed: %v", err)
	}

	events := handler.received()
	if len(events) != 1 {
		t.Fatalf("expected 1 handled event, got %d", len(events))
	}
	if events[0].EventType != domain.EventTypePaymentCompleted {
		t.Errorf("unexpected decoded event: %+v", events[0])
	}
	payload, ok := events[0].Payload.(*domain.PaymentCompletedEvent)
	if !ok {
		t.Fatalf("expected PaymentCompletedEvent payload, got %T", events[0].Payload)
	}
	if payload.PaymentID != "pay-1" {
		t.Errorf("expected payment pay-1, got %s", payload.PaymentID)
	}

	if n := pendingCount(t, client); n != 0 {
		t.Errorf("expected message acked, %d pending", n)
	}

	seen, _ := dedupe.Seen(ctx, "ev-1")
	if !seen {
		t.Error("expected event marked in dedupe store")
	}
}

func TestSubscriber_HandlerFailureLeavesPending(t *testing.T) {
	handler := &recordingHandler{err: errors.New("downstream unavailable")}
	sub, client := newTestSubscriber(t, handler, newMemoryDedupe())
	ctx := context.Background()

	addStreamEvent(t, client, map[string]any{
		fieldEventID:   "ev-1",
		fieldEventType: domain.EventTypePaymentCompleted,
		fieldPayload:   `{"payment_id":"pay-1"}`,
	})

	if err := sub.ensureGroups(ctx); err != nil {
		t.Fatalf("ensureGroups failed: %v", err)
	}
	if err := sub.readBatch(ctx); err != nil {
		t.Fatalf("readBatch failed: %v", err)
	}

	// Unacked messages stay pending for redelivery.
	if n := pendingCount(t, client); n != 1 {
		t.Fatalf("expected 1 pending message, got %d", n)
	}
}

func TestSubscriber_DedupeSkipsSeen(t *testing.T) {
	handler := &recordingHandler{}
	dedupe := newMemoryDedupe()
	_ = dedupe.Mark(context.Background(), "ev-1")

	sub, client := newTestSubscriber(t, handler, dedupe)
	ctx := context.Background()

	addStreamEvent(t, client, map[string]any{
		fieldEventID:   "ev-1",
		fieldEventType: domain.EventTypePaymentCompleted,
		fieldPayload:   `{"payment_id":"pay-1"}`,
	})

	if err := sub.ensureGroups(ctx); err != nil {
		t.Fatalf("ensureGroups failed: %v", err)
	}
	if err := sub.readBatch(ctx); err != nil {
		t.Fatalf("readBatch failed: %v", err)
	}

	if len(handler.received()) != 0 {
		t.Error("handler must not run for an already-seen event")
	}
	if n := pendingCount(t, client); n != 0 {
		t.Errorf("expected duplicate acked, %d pending", n)
	}
}

func TestSubscriber_DropsBadMessages(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{
			name: "unknown event type",
			values: map[string]any{
				fieldEventID:   "ev-1",
				fieldEventType: "payment.exploded",
				fieldPayload:   `{}`,
			},
		},
		{
			name: "missing event id",
			values: map[string]any{
				fieldEventType: domain.EventTypePaymentCompleted,
				fieldPayload:   `{}`,
			},
		},
		{
			name: "malformed payload",
			values: map[string]any{
				fieldEventID:   "ev-1",
				fieldEventType: domain.EventTypePaymentCompleted,
				fieldPayload:   `{not json`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &recordingHandler{}
			sub, client := newTestSubscriber(t, handler, nil)
			ctx := context.Background()

			addStreamEvent(t, client, tt.values)

			if err := sub.ensureGroups(ctx); err != nil {
				t.Fatalf("ensureGroups failed: %v", err)
			}
			if err := sub.readBatch(ctx); err != nil {
				t.Fatalf("readBatch failed: %v", err)
			}

			if len(handler.received()) != 0 {
				t.Error("handler must not run for a dropped message")
			}
			if n := pendingCount(t, client); n != 0 {
				t.Errorf("expected dropped message acked, %d pending", n)
			}
		})
	}
}

func TestSubscriber_EnsureGroupsIdempotent(t *testing.T) {
	sub, _ := newTestSubscriber(t, &recordingHandler{}, nil)
	ctx := context.Background()

	if err := sub.ensureGroups(ctx); err != nil {
		t.Fatalf("first ensureGroups failed: %v", err)
	}
	if err := sub.ensureGroups(ctx); err != nil {
		t.Fatalf("second ensureGroups must tolerate existing groups: %v", err)
	}
}
