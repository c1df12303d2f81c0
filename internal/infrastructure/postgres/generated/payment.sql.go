
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (id, source_account_id, destination_account_id, amount, currency, kind, description, status, scheduled_at, risk_score, external_payee, failure_reason, created_at, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id, source_account_id, destination_account_id, amount, currency, kind, description, status, scheduled_at, risk_score, external_payee, failure_reason, created_at, processed_at
`

type CreatePaymentParams struct {
	ID                   string             `json:"id"`
	SourceAccountID      string             `json:"source_account_id"`
	DestinationAccountID pgtype.Text        `json:"destination_account_id"`
	Amount               pgtype.Numeric     `json:"amount"`
	Currency             string             `json:"currency"`
	Kind                 string             `json:"kind"`
	Description          string             `json:"description"`
	Status               string             `json:"status"`
	ScheduledAt          pgtype.Timestamptz `json:"scheduled_at"`
	RiskScore            int32              `json:"risk_score"`
	ExternalPayee        pgtype.Text        `json:"external_payee"`
	FailureReason        pgtype.Text        `json:"failure_reason"`
	CreatedAt            pgtype.Timestamptz `json:"created_at"`
	ProcessedAt          pgtype.Timestamptz `json:"processed_at"`
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.ID,
		arg.SourceAccountID,
		arg.DestinationAccountID,
		arg.Amount,
		arg.Currency,
		arg.Kind,
		arg.Description,
		arg.Status,
		arg.ScheduledAt,
		arg.RiskScore,
		arg.ExternalPayee,
		arg.FailureReason,
		arg.CreatedAt,
		arg.ProcessedAt,
	)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.SourceAccountID,
		&i.DestinationAccountID,
		&i.Amount,
		&i.Currency,
		&i.Kind,
		&i.Description,
		&i.Status,
		&i.ScheduledAt,
		&i.RiskScore,
		&i.ExternalPayee,
		&i.FailureReason,
		&i.CreatedAt,
		&i.ProcessedAt,
	)
	return i, err
}

const getPaymentByID = `-- name: GetPaymentByID :one
SELECT id, source_account_id, destination_account_id, amount, currency, kind, description, status, scheduled_at, risk_score, external_payee, failure_reason, created_at, processed_at FROM payments WHERE id = $1
`

func (q *Queries) GetPaymentByID(ctx context.Context, id string) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByID, id)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.SourceAccountID,
		&i.DestinationAccountID,
		&i.Amount,
		&i.Currency,
		&i.Kind,
		&i.Description,
		&i.Status,
		&i.ScheduledAt,
		&i.RiskScore,
		&i.ExternalPayee,
		&i.FailureReason,
		&i.CreatedAt,
		&i.ProcessedAt,
	)
	return i, err
}

const listDueScheduledPayments = `-- name: ListDueScheduledPayments :many
SELECT id, source_account_id, destination_account_id, amount, currency, kind, description, status, scheduled_at, risk_score, external_payee, failure_reason, created_at, processed_at FROM payments
WHERE status = 'scheduled' AND scheduled_at <= $1
ORDER BY scheduled_at, id LIMIT $2
`

type ListDueScheduledPaymentsParams struct {
	ScheduledAt pgtype.Timestamptz `json:"scheduled_at"`
	Limit       int32              `json:"limit"`
}

func (q *Queries) ListDueScheduledPayments(ctx context.Context, arg ListDueScheduledPaymentsParams) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listDueScheduledPayments, arg.ScheduledAt, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		var i Payment
		if err := rows.Scan(
			&i.ID,
			&i.SourceAccountID,
			&i.DestinationAccountID,
			&i.Amount,
			&i.Currency,
			&i.Kind,
			&i.Description,
			&i.Status,
			&i.ScheduledAt,
			&i.RiskScore,
			&i.ExternalPayee,
			&i.FailureReason,
			&i.CreatedAt,
			&i.ProcessedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPayments = `-- name: ListPayments :many
SELECT p.id, p.source_account_id, p.destination_account_id, p.amount, p.currency, p.kind, p.description, p.status, p.scheduled_at, p.risk_score, p.external_payee, p.failure_reason, p.created_at, p.processed_at
FROM payments p
JOIN accounts a ON a.id = p.source_account_id
WHERE ($1::text = '' OR a.owner_id = $1)
  AND ($2::text = '' OR p.source_account_id = $2)
  AND ($3::text = '' OR p.status = $3)
ORDER BY p.created_at DESC, p.id DESC LIMIT $4 OFFSET $5
`

type ListPaymentsParams struct {
	OwnerID         string `json:"owner_id"`
	SourceAccountID string `json:"source_account_id"`
	Status          string `json:"status"`
	Limit           int32  `json:"limit"`
	Offset          int32  `json:"offset"`
}

func (q *Queries) ListPayments(ctx context.Context, arg ListPaymentsParams) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPayments,
		arg.OwnerID,
		arg.SourceAccountID,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		var i Payment
		if err := rows.Scan(
			&i.ID,
			&i.SourceAccountID,
			&i.DestinationAccountID,
			&i.Amount,
			&i.Currency,
			&i.Kind,
			&i.Description,
			&i.Status,
			&i.ScheduledAt,
			&i.RiskScore,
			&i.ExternalPayee,
			&i.FailureReason,
			&i.CreatedAt,
			&i.ProcessedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const transitionPaymentStatus = `-- name: TransitionPaymentStatus :execrows
UPDATE payments
SET status = $2,
    processed_at = COALESCE($3, processed_at),
    failure_reason = COALESCE($4, failure_reason)
WHERE id = $1 AND status = ANY($5::text[])
`

type TransitionPaymentStatusParams struct {
	ID            string             `json:"id"`
	Status        string             `json:"status"`
	ProcessedAt   pgtype.Timestamptz `json:"processed_at"`
	FailureReason pgtype.Text        `json:"failure_reason"`
	FromStatuses  []string           `json:"from_statuses"`
}

func (q *Queries) TransitionPaymentStatus(ctx context.Context, arg TransitionPaymentStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, transitionPaymentStatus,
		arg.ID,
		arg.Status,
		arg.ProcessedAt,
		arg.FailureReason,
		arg.FromStatuses,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
