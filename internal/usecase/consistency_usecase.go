package usecase

import (
	"context"
	"errors"
)

var (
	// ErrInconsistentLedger is returned when any account balance disagrees
	// with the signed sum of its entries.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balance does not equal entry sum")
)

// ConsistencyUseCase verifies the ledger's core invariant: for every
// account, balance equals the signed sum of its committed entries. The
// balance column is the system of record; the event log is a derived stream
// and is never replayed here.
type ConsistencyUseCase struct {
	consistencyRepo ConsistencyRepository
}

// NewConsistencyUseCase creates a new ConsistencyUseCase.
func NewConsistencyUseCase(consistencyRepo ConsistencyRepository) *ConsistencyUseCase {
	return &ConsistencyUseCase{
		consistencyRepo: consistencyRepo,
	}
}

// CheckConsistency returns the accounts in drift, if any.
func (uc *ConsistencyUseCase) CheckConsistency(ctx context.Context, limit int) ([]BalanceDrift, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	drift, err := uc.consistencyRepo.FindBalanceDrift(ctx, limit)
	if err != nil {
		return nil, err
	}

	if len(drift) > 0 {
		return drift, ErrInconsistentLedger
	}

	return nil, nil
}
