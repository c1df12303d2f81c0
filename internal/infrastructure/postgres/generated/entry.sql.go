
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countEntriesByAccountSince = `-- name: CountEntriesByAccountSince :one
SELECT COUNT(*) FROM entries WHERE account_id = $1 AND created_at >= $2
`

type CountEntriesByAccountSinceParams struct {
	AccountID string             `json:"account_id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CountEntriesByAccountSince(ctx context.Context, arg CountEntriesByAccountSinceParams) (int64, error) {
	row := q.db.QueryRow(ctx, countEntriesByAccountSince, arg.AccountID, arg.CreatedAt)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createEntry = `-- name: CreateEntry :one
INSERT INTO entries (id, account_id, direction, amount, description, reference_id, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, account_id, direction, amount, description, reference_id, status, created_at
`

type CreateEntryParams struct {
	ID          string             `json:"id"`
	AccountID   string             `json:"account_id"`
	Direction   string             `json:"direction"`
	Amount      pgtype.Numeric     `json:"amount"`
	Description string             `json:"description"`
	ReferenceID string             `json:"reference_id"`
	Status      string             `json:"status"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (Entry, error) {
	row := q.db.QueryRow(ctx, createEntry,
		arg.ID,
		arg.AccountID,
		arg.Direction,
		arg.Amount,
		arg.Description,
		arg.ReferenceID,
		arg.Status,
		arg.CreatedAt,
	)
	var i Entry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Direction,
		&i.Amount,
		&i.Description,
		&i.ReferenceID,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const listEntriesByAccount = `-- name: ListEntriesByAccount :many
SELECT id, account_id, direction, amount, description, reference_id, status, created_at FROM entries
WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3
`

type ListEntriesByAccountParams struct {
	AccountID string `json:"account_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListEntriesByAccount(ctx context.Context, arg ListEntriesByAccountParams) ([]Entry, error) {
	rows, err := q.db.Query(ctx, listEntriesByAccount, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Entry{}
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Direction,
			&i.Amount,
			&i.Description,
			&i.ReferenceID,
			&i.Status,
			&i.CreatedAt,
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

const listEntriesByReference = `-- name: ListEntriesByReference :many
SELECT id, account_id, direction, amount, description, reference_id, status, created_at FROM entries
WHERE reference_id = $1 ORDER BY created_at, id
`

func (q *Queries) ListEntriesByReference(ctx context.Context, referenceID string) ([]Entry, error) {
	rows, err := q.db.Query(ctx, listEntriesByReference, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Entry{}
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Direction,
			&i.Amount,
			&i.Description,
			&i.ReferenceID,
			&i.Status,
			&i.CreatedAt,
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
