package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/infrastructure/postgres/generated"
	"github.com/nmarks/payflow/internal/usecase"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create writes a payment inside the caller's transaction.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	_, err := queries.CreatePayment(ctx, generated.CreatePaymentParams{
		ID:                   payment.ID,
		SourceAccountID:      payment.SourceAccountID,
		DestinationAccountID: strPtrToPgText(payment.DestinationAccountID),
		Amount:               decimalToNumeric(payment.Amount),
		Currency:             payment.Currency,
		Kind:                 string(payment.Kind),
		Description:          payment.Description,
		Status:               string(payment.Status),
		ScheduledAt:          timePtrToPgTimestamptz(payment.ScheduledAt),
		RiskScore:            int32(payment.RiskScore),
		ExternalPayee:        strPtrToPgText(payment.ExternalPayee),
		FailureReason:        strPtrToPgText(payment.FailureReason),
		CreatedAt:            timeToPgTimestamptz(payment.CreatedAt),
		ProcessedAt:          timePtrToPgTimestamptz(payment.ProcessedAt),
	})

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	row, err := r.queries.GetPaymentByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}

		return nil, err
	}

	return rowToPayment(row), nil
}

// List lists payments matching the filter, newest first.
func (r *PaymentRepository) List(ctx context.Context, filter usecase.PaymentFilter) ([]*domain.Payment, error) {
	rows, err := r.queries.ListPayments(ctx, generated.ListPaymentsParams{
		OwnerID:         filter.OwnerID,
		SourceAccountID: filter.SourceAccountID,
		Status:          string(filter.Status),
		Limit:           int32(filter.Limit),
		Offset:          int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	payments := make([]*domain.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, rowToPayment(row))
	}

	return payments, nil
}

// TransitionStatus moves the payment to a new status iff it currently holds
// one of the from statuses. The compare-and-swap lives in the UPDATE's WHERE
// clause, so concurrent transitions serialize on the row and exactly one
// wins.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, tx usecase.Transaction, id string, from []domain.PaymentStatus, to domain.PaymentStatus, processedAt *time.Time, failureReason *string) (bool, error) {
	queries := r.queries
	if tx != nil {
		queries = generated.New(tx.(*Tx).PgxTx())
	}

	fromStatuses := make([]string, 0, len(from))
	for _, s := range from {
		fromStatuses = append(fromStatuses, string(s))
	}

	affected, err := queries.TransitionPaymentStatus(ctx, generated.TransitionPaymentStatusParams{
		ID:            id,
		Status:        string(to),
		ProcessedAt:   timePtrToPgTimestamptz(processedAt),
		FailureReason: strPtrToPgText(failureReason),
		FromStatuses:  fromStatuses,
	})
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// Claim is TransitionStatus without a surrounding transaction.
func (r *PaymentRepository) Claim(ctx context.Context, id string, from []domain.PaymentStatus, to domain.PaymentStatus) (bool, error) {
	return r.TransitionStatus(ctx, nil, id, from, to, nil, nil)
}

// ListDueScheduled lists scheduled payments due at or before the given time.
func (r *PaymentRepository) ListDueScheduled(ctx context.Context, due time.Time, limit int) ([]*domain.Payment, error) {
	rows, err := r.queries.ListDueScheduledPayments(ctx, generated.ListDueScheduledPaymentsParams{
		ScheduledAt: timeToPgTimestamptz(due),
		Limit:       int32(limit),
	})
	if err != nil {
		return nil, err
	}

	payments := make([]*domain.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, rowToPayment(row))
	}

	return payments, nil
}

func rowToPayment(row generated.Payment) *domain.Payment {
	return &domain.Payment{
		ID:                   row.ID,
		SourceAccountID:      row.SourceAccountID,
		DestinationAccountID: pgTextToStrPtr(row.DestinationAccountID),
		Amount:               numericToDecimal(row.Amount),
		Currency:             row.Currency,
		Kind:                 domain.PaymentKind(row.Kind),
		Description:          row.Description,
		Status:               domain.PaymentStatus(row.Status),
		ScheduledAt:          pgTimestamptzToTimePtr(row.ScheduledAt),
		RiskScore:            int(row.RiskScore),
		ExternalPayee:        pgTextToStrPtr(row.ExternalPayee),
		FailureReason:        pgTextToStrPtr(row.FailureReason),
		CreatedAt:            row.CreatedAt.Time,
		ProcessedAt:          pgTimestamptzToTimePtr(row.ProcessedAt),
	}
}
