package notifier

import (
	"context"
	"log/slog"

	"github.com/nmarks/payflow/internal/domain"
)

// Notifier is the reference event consumer: it turns the closed set of
// domain events into notification log lines. Delivery to real channels
// (email, push) is an external collaborator; this consumer demonstrates the
// at-least-once contract end to end.
type Notifier struct {
	logger *slog.Logger
}

// New creates a Notifier.
func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// Handle dispatches one decoded event. The switch is exhaustive over the
// event kinds; DecodeEvent already rejected anything outside the set.
func (n *Notifier) Handle(ctx context.Context, event *domain.DecodedEvent) error {
	switch p := event.Payload.(type) {
	case *domain.TransactionCreatedEvent:
		n.logger.Info("notify: ledger entry posted",
			slog.String("owner_id", p.OwnerID),
			slog.String("account_id", p.AccountID),
			slog.String("direction", p.Direction),
			slog.String("amount", p.Amount))
	case *domain.TransferCompletedEvent:
		n.logger.Info("notify: transfer completed",
			slog.String("owner_id", p.OwnerID),
			slog.String("reference_id", p.ReferenceID),
			slog.String("amount", p.Amount))
	case *domain.PaymentCreatedEvent:
		n.logger.Info("notify: payment created",
			slog.String("owner_id", p.OwnerID),
			slog.String("payment_id", p.PaymentID),
			slog.String("status", p.Status))
	case *domain.PaymentCompletedEvent:
		n.logger.Info("notify: payment completed",
			slog.String("owner_id", p.OwnerID),
			slog.String("payment_id", p.PaymentID),
			slog.String("amount", p.Amount))
	case *domain.PaymentFailedEvent:
		n.logger.Warn("notify: payment failed",
			slog.String("owner_id", p.OwnerID),
			slog.String("payment_id", p.PaymentID),
			slog.String("reason", p.Reason))
	case *domain.PaymentCancelledEvent:
		n.logger.Info("notify: payment cancelled",
			slog.String("owner_id", p.OwnerID),
			slog.String("payment_id", p.PaymentID))
	default:
		return domain.ErrUnknownEventType
	}

	return nil
}
