package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/infrastructure/metrics"
	"github.com/nmarks/payflow/internal/usecase"
)

// PaymentExecutor executes a due scheduled payment. A nil payment with nil
// error means another worker claimed it first.
type PaymentExecutor interface {
	ExecuteDue(ctx context.Context, paymentID string) (*domain.Payment, error)
}

// Config for the Scheduler.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Scheduler sweeps scheduled payments whose due time has arrived and hands
// them to the lifecycle manager. Claiming is a status compare-and-swap, so
// concurrent sweeps over the same rows execute each payment exactly once.
type Scheduler struct {
	paymentRepo usecase.PaymentRepository
	executor    PaymentExecutor
	logger      *slog.Logger
	metrics     *metrics.Metrics
	interval    time.Duration
	batchSize   int
}

// New creates a Scheduler.
func New(paymentRepo usecase.PaymentRepository, executor PaymentExecutor, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Scheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		paymentRepo: paymentRepo,
		executor:    executor,
		logger:      logger,
		metrics:     m,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
	}
}

// Start sweeps until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("payment scheduler started",
		slog.Duration("interval", s.interval),
		slog.Int("batch_size", s.batchSize))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("payment scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("scheduler sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// SweepOnce executes every payment due as of now. Execution failures mark
// the individual payment failed and do not abort the sweep.
func (s *Scheduler) SweepOnce(ctx context.Context) error {
	if s.metrics != nil {
		s.metrics.SchedulerTicks.Inc()
	}

	due, err := s.paymentRepo.ListDueScheduled(ctx, time.Now(), s.batchSize)
	if err != nil {
		return err
	}

	for _, payment := range due {
		executed, err := s.executor.ExecuteDue(ctx, payment.ID)
		if err != nil {
			s.logger.Error("scheduled payment execution failed",
				slog.String("payment_id", payment.ID),
				slog.String("error", err.Error()))
			continue
		}
		if executed == nil {
			// Claimed by a concurrent sweep or cancelled under us.
			if s.metrics != nil {
				s.metrics.SchedulerSkipped.Inc()
			}
			continue
		}

		if s.metrics != nil {
			s.metrics.SchedulerExecuted.Inc()
		}
		s.logger.Info("scheduled payment executed",
			slog.String("payment_id", payment.ID),
			slog.String("status", string(executed.Status)))
	}

	return nil
}
