
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const applyAccountBalanceDelta = `-- name: ApplyAccountBalanceDelta :execrows
UPDATE accounts
SET balance = balance + $2, version = version + 1, updated_at = $3
WHERE id = $1 AND balance + $2 >= 0
`

type ApplyAccountBalanceDeltaParams struct {
	ID        string             `json:"id"`
	Delta     pgtype.Numeric     `json:"delta"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) ApplyAccountBalanceDelta(ctx context.Context, arg ApplyAccountBalanceDeltaParams) (int64, error) {
	result, err := q.db.Exec(ctx, applyAccountBalanceDelta, arg.ID, arg.Delta, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, owner_id, name, currency, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, owner_id, name, currency, balance, version, created_at, updated_at
`

type CreateAccountParams struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	Name      string             `json:"name"`
	Currency  string             `json:"currency"`
	Balance   pgtype.Numeric     `json:"balance"`
	Version   int64              `json:"version"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount,
		arg.ID,
		arg.OwnerID,
		arg.Name,
		arg.Currency,
		arg.Balance,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Currency,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, owner_id, name, currency, balance, version, created_at, updated_at FROM accounts WHERE id = $1
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Currency,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAccountsByOwner = `-- name: ListAccountsByOwner :many
SELECT id, owner_id, name, currency, balance, version, created_at, updated_at FROM accounts
WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
`

type ListAccountsByOwnerParams struct {
	OwnerID string `json:"owner_id"`
	Limit   int32  `json:"limit"`
	Offset  int32  `json:"offset"`
}

func (q *Queries) ListAccountsByOwner(ctx context.Context, arg ListAccountsByOwnerParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccountsByOwner, arg.OwnerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Name,
			&i.Currency,
			&i.Balance,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
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
