
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const findBalanceDrift = `-- name: FindBalanceDrift :many
SELECT a.id, a.balance,
       COALESCE(SUM(CASE WHEN e.direction = 'credit' THEN e.amount ELSE -e.amount END), 0)::NUMERIC AS entry_sum
FROM accounts a
LEFT JOIN entries e ON e.account_id = a.id
GROUP BY a.id, a.balance
HAVING a.balance <> COALESCE(SUM(CASE WHEN e.direction = 'credit' THEN e.amount ELSE -e.amount END), 0)
ORDER BY a.id LIMIT $1
`

type FindBalanceDriftRow struct {
	ID       string         `json:"id"`
	Balance  pgtype.Numeric `json:"balance"`
	EntrySum pgtype.Numeric `json:"entry_sum"`
}

func (q *Queries) FindBalanceDrift(ctx context.Context, limit int32) ([]FindBalanceDriftRow, error) {
	rows, err := q.db.Query(ctx, findBalanceDrift, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindBalanceDriftRow{}
	for rows.Next() {
		var i FindBalanceDriftRow
		if err := rows.Scan(&i.ID, &i.Balance, &i.EntrySum); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
