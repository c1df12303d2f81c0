package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/infrastructure/metrics"
)

// ConnState is the bus connection state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// StreamClient is the subset of redis operations the bus publishes through.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Bus publishes domain events to topic-addressed Redis streams. The
// connection is an explicit owned handle with a reconnection state machine:
// while disconnected, publishes land in a bounded local queue that is
// flushed on reconnect, so a channel outage defers delivery instead of
// failing the caller's mutation.
type Bus struct {
	client   StreamClient
	prefix   string
	maxQueue int
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	state ConnState
	queue []queuedEvent
}

type queuedEvent struct {
	topic  string
	values map[string]any
}

// Config for the Bus.
type Config struct {
	Client      StreamClient
	TopicPrefix string
	MaxQueue    int
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// New creates a Bus. The bus starts connected; the first failed publish
// moves it through the reconnect path.
func New(cfg Config) *Bus {
	if cfg.MaxQueue == 0 {
		cfg.MaxQueue = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "events"
	}

	return &Bus{
		client:   cfg.Client,
		prefix:   cfg.TopicPrefix,
		maxQueue: cfg.MaxQueue,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		state:    StateConnected,
	}
}

// Topic returns the stream name for an aggregate type.
func (b *Bus) Topic(aggregateType string) string {
	return b.prefix + "." + aggregateType
}

// State returns the current connection state.
func (b *Bus) State() ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// QueuedEvents returns the number of locally queued events.
func (b *Bus) QueuedEvents() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Publish appends an event to its aggregate type's stream. On channel
// failure the event is queued locally and domain.ErrEventDeliveryDeferred is
// returned; callers treat that as deferral, not failure.
func (b *Bus) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	values, err := encodeEvent(event)
	if err != nil {
		return err
	}

	topic := b.Topic(event.AggregateType)

	b.mu.Lock()
	if b.state != StateConnected {
		err := b.enqueueLocked(topic, values)
		b.mu.Unlock()
		b.triggerReconnect()
		if err != nil {
			return err
		}
		return domain.ErrEventDeliveryDeferred
	}
	b.mu.Unlock()

	if err := b.client.XAdd(ctx, &redis.XAddArgs{Stream: topic, Values: values}).Err(); err != nil {
		b.logger.Warn("event channel unavailable, queueing locally",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()))

		b.mu.Lock()
		b.state = StateDisconnected
		qerr := b.enqueueLocked(topic, values)
		b.mu.Unlock()
		b.triggerReconnect()

		if b.metrics != nil {
			b.metrics.EventsDeferred.Inc()
		}
		if qerr != nil {
			return qerr
		}
		return fmt.Errorf("%w: %v", domain.ErrEventDeliveryDeferred, err)
	}

	if b.metrics != nil {
		b.metrics.EventsPublished.Inc()
	}

	return nil
}

func (b *Bus) enqueueLocked(topic string, values map[string]any) error {
	if len(b.queue) >= b.maxQueue {
		// Dropping here is safe: the outbox row stays unpublished and the
		// dispatcher re-publishes it after reconnect.
		return fmt.Errorf("%w: local queue full", domain.ErrEventDeliveryDeferred)
	}
	b.queue = append(b.queue, queuedEvent{topic: topic, values: values})
	return nil
}

// triggerReconnect starts the reconnect loop unless one is already running.
func (b *Bus) triggerReconnect() {
	b.mu.Lock()
	if b.state == StateConnecting {
		b.mu.Unlock()
		return
	}
	b.state = StateConnecting
	b.mu.Unlock()

	go b.reconnect()
}

func (b *Bus) reconnect() {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 2 * time.Minute

	err := backoff.Retry(func() error {
		return b.client.Ping(context.Background()).Err()
	}, bo)

	b.mu.Lock()
	if err != nil {
		b.state = StateDisconnected
		b.mu.Unlock()
		b.logger.Error("event channel reconnect gave up", slog.String("error", err.Error()))
		return
	}

	b.state = StateConnected
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()

	b.logger.Info("event channel reconnected", slog.Int("queued", len(pending)))

	for i, q := range pending {
		if err := b.client.XAdd(context.Background(), &redis.XAddArgs{Stream: q.topic, Values: q.values}).Err(); err != nil {
			b.mu.Lock()
			b.state = StateDisconnected
			b.queue = append(pending[i:], b.queue...)
			b.mu.Unlock()
			b.triggerReconnect()
			return
		}
		if b.metrics != nil {
			b.metrics.EventsPublished.Inc()
		}
	}
}

// Stream field names for encoded events.
const (
	fieldEventID       = "event_id"
	fieldAggregateID   = "aggregate_id"
	fieldAggregateType = "aggregate_type"
	fieldEventType     = "event_type"
	fieldVersion       = "version"
	fieldPayload       = "payload"
	fieldCreatedAt     = "created_at"
)

func encodeEvent(event *domain.OutboxEvent) (map[string]any, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		fieldEventID:       event.ID,
		fieldAggregateID:   event.AggregateID,
		fieldAggregateType: event.AggregateType,
		fieldEventType:     event.EventType,
		fieldVersion:       event.Version,
		fieldPayload:       string(payload),
		fieldCreatedAt:     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}
