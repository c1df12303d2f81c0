package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/usecase"
)

// Publisher pushes an event onto the outbound channel.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for the Dispatcher.
type Config struct {
	Interval  time.Duration
	BatchSize int
	// Retention bounds how long published rows are kept for the event query
	// surface before the sweep removes them.
	Retention time.Duration
}

// Dispatcher drains the transactional outbox: it polls unpublished rows in
// per-aggregate version order, publishes them, and marks them published only
// after the publish succeeds. Rows that fail to publish stay unpublished and
// are retried on the next poll, so delivery is at-least-once.
type Dispatcher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     *slog.Logger
	interval   time.Duration
	batchSize  int
	retention  time.Duration
}

// New creates a Dispatcher.
func New(outboxRepo usecase.OutboxRepository, publisher Publisher, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Retention == 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		retention:  cfg.Retention,
	}
}

// Start polls until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("outbox dispatcher started",
		slog.Duration("interval", d.interval),
		slog.Int("batch_size", d.batchSize))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	sweep := time.NewTicker(time.Hour)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := d.DispatchOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("outbox dispatch failed", slog.String("error", err.Error()))
			}
		case <-sweep.C:
			if err := d.outboxRepo.DeletePublished(ctx, time.Now().Add(-d.retention)); err != nil {
				d.logger.Error("outbox retention sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// DispatchOnce publishes one batch of unpublished events. When an event
// fails, later events of the same aggregate are held back so per-aggregate
// order survives the retry.
func (d *Dispatcher) DispatchOnce(ctx context.Context) error {
	events, err := d.outboxRepo.GetUnpublished(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	blocked := make(map[string]bool)
	published := 0

	for _, event := range events {
		if blocked[event.AggregateID] {
			continue
		}

		if err := d.publisher.Publish(ctx, event); err != nil {
			blocked[event.AggregateID] = true
			if !errors.Is(err, domain.ErrEventDeliveryDeferred) {
				d.logger.Error("event publish failed",
					slog.String("event_id", event.ID),
					slog.String("event_type", event.EventType),
					slog.String("error", err.Error()))
			}
			continue
		}

		if err := d.outboxRepo.MarkPublished(ctx, event.ID, time.Now()); err != nil {
			// The event went out but stays unpublished; the next poll
			// re-sends it and consumers dedupe on the event id.
			d.logger.Warn("mark published failed",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()))
			blocked[event.AggregateID] = true
			continue
		}

		published++
	}

	if published > 0 {
		d.logger.Debug("outbox batch dispatched",
			slog.Int("published", published),
			slog.Int("fetched", len(events)))
	}

	return nil
}
