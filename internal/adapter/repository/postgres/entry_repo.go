package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/infrastructure/postgres/generated"
	"github.com/nmarks/payflow/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create writes an entry inside the caller's transaction. Entries are
// immutable once written.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	_, err := queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:          entry.ID,
		AccountID:   entry.AccountID,
		Direction:   string(entry.Direction),
		Amount:      decimalToNumeric(entry.Amount),
		Description: entry.Description,
		ReferenceID: entry.ReferenceID,
		Status:      string(entry.Status),
		CreatedAt:   timeToPgTimestamptz(entry.CreatedAt),
	})

	return err
}

// ListByAccount lists entries for an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListByReference lists the entries sharing a reference id, oldest first.
// For a transfer this returns both legs.
func (r *EntryRepository) ListByReference(ctx context.Context, referenceID string) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntriesByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// CountByAccountSince counts entries posted to an account since a time.
func (r *EntryRepository) CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	return r.queries.CountEntriesByAccountSince(ctx, generated.CountEntriesByAccountSinceParams{
		AccountID: accountID,
		CreatedAt: timeToPgTimestamptz(since),
	})
}

func rowsToEntries(rows []generated.Entry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries
}

func rowToEntry(row generated.Entry) *domain.Entry {
	return &domain.Entry{
		ID:          row.ID,
		AccountID:   row.AccountID,
		Direction:   domain.EntryDirection(row.Direction),
		Amount:      numericToDecimal(row.Amount),
		Description: row.Description,
		ReferenceID: row.ReferenceID,
		Status:      domain.EntryStatus(row.Status),
		CreatedAt:   row.CreatedAt.Time,
	}
}
