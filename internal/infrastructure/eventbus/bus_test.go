package eventbus

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmarks/payflow/internal/domain"
)

func newTestBus(t *testing.T) (*Bus, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := New(Config{Client: client, TopicPrefix: "events", MaxQueue: 8})
	return bus, s, client
}

func testEvent(id string) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   "pay-1",
		AggregateType: domain.AggregateTypePayment,
		EventType:     domain.EventTypePaymentCompleted,
		Payload:       map[string]any{"payment_id": "pay-1"},
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestBus_Publish(t *testing.T) {
	bus, _, client := newTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, testEvent("ev-1")))

	msgs, err := client.XRange(ctx, "events.payment", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, "ev-1", msgs[0].Values[fieldEventID])
	assert.Equal(t, domain.EventTypePaymentCompleted, msgs[0].Values[fieldEventType])
	assert.Equal(t, StateConnected, bus.State())
}

func TestBus_PublishFailureDefersDelivery(t *testing.T) {
	bus, s, _ := newTestBus(t)

	s.Close()

	err := bus.Publish(context.Background(), testEvent("ev-1"))
	require.ErrorIs(t, err, domain.ErrEventDeliveryDeferred)
	assert.Equal(t, 1, bus.QueuedEvents())
}

func TestBus_ReconnectFlushesQueue(t *testing.T) {
	bus, s, client := newTestBus(t)
	ctx := context.Background()

	s.Close()
	require.ErrorIs(t, bus.Publish(ctx, testEvent("ev-1")), domain.ErrEventDeliveryDeferred)

	require.NoError(t, s.Restart())

	require.Eventually(t, func() bool {
		return bus.State() == StateConnected && bus.QueuedEvents() == 0
	}, 5*time.Second, 50*time.Millisecond, "queue never flushed after reconnect")

	msgs, err := client.XRange(ctx, "events.payment", "-", "+").Result()
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestBus_QueueFull(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := New(Config{Client: client, TopicPrefix: "events", MaxQueue: 1})
	s.Close()

	ctx := context.Background()
	require.ErrorIs(t, bus.Publish(ctx, testEvent("ev-1")), domain.ErrEventDeliveryDeferred)

	// Queue is full now; the drop is still reported as deferral because the
	// outbox row stays unpublished.
	require.ErrorIs(t, bus.Publish(ctx, testEvent("ev-2")), domain.ErrEventDeliveryDeferred)
	assert.Equal(t, 1, bus.QueuedEvents())
}

func TestBus_Topic(t *testing.T) {
	bus := New(Config{TopicPrefix: "events"})
	assert.Equal(t, "events.payment", bus.Topic("payment"))
}
