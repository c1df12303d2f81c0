package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nmarks/payflow/internal/domain"
)

// Simulator is a deterministic stand-in for an external settlement rail.
// Payee descriptors containing the decline marker settle negatively; every
// other payee settles positively. The outcome is a function of the payment
// alone, so retried executions settle identically.
type Simulator struct {
	declineMarker string
	logger        *slog.Logger
}

// NewSimulator creates a settlement simulator.
func NewSimulator(logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		declineMarker: "decline",
		logger:        logger,
	}
}

// Settle settles a payment against its external payee.
func (s *Simulator) Settle(ctx context.Context, payment *domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if payment.ExternalPayee == nil {
		return nil
	}

	payee := *payment.ExternalPayee
	if strings.Contains(strings.ToLower(payee), s.declineMarker) {
		s.logger.Warn("settlement declined",
			slog.String("payment_id", payment.ID),
			slog.String("payee", payee))
		return fmt.Errorf("%w: payee %q", domain.ErrSettlementFailed, payee)
	}

	s.logger.Debug("settlement accepted",
		slog.String("payment_id", payment.ID),
		slog.String("payee", payee))

	return nil
}
