package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmarks/payflow/internal/infrastructure/postgres/generated"
	"github.com/nmarks/payflow/internal/usecase"
)

// ConsistencyRepository implements usecase.ConsistencyRepository.
type ConsistencyRepository struct {
	queries *generated.Queries
}

// NewConsistencyRepository creates a new ConsistencyRepository.
func NewConsistencyRepository(pool *pgxpool.Pool) *ConsistencyRepository {
	return &ConsistencyRepository{queries: generated.New(pool)}
}

// FindBalanceDrift returns accounts whose stored balance disagrees with the
// signed sum of their entries.
func (r *ConsistencyRepository) FindBalanceDrift(ctx context.Context, limit int) ([]usecase.BalanceDrift, error) {
	rows, err := r.queries.FindBalanceDrift(ctx, int32(limit))
	if err != nil {
		return nil, err
	}

	drift := make([]usecase.BalanceDrift, 0, len(rows))
	for _, row := range rows {
		drift = append(drift, usecase.BalanceDrift{
			AccountID: row.ID,
			Balance:   numericToDecimal(row.Balance),
			EntrySum:  numericToDecimal(row.EntrySum),
		})
	}

	return drift, nil
}
