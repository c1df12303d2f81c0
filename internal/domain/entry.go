package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection is the side of the ledger an entry posts to.
type EntryDirection string

const (
	DirectionDebit  EntryDirection = "debit"
	DirectionCredit EntryDirection = "credit"
)

// EntryStatus is the lifecycle state of a ledger entry. Entries are written
// once as posted; corrections are new offsetting entries.
type EntryStatus string

const (
	EntryStatusPosted EntryStatus = "posted"
)

// Entry represents a single immutable ledger entry. Amount is always
// positive; Direction carries the sign.
type Entry struct {
	ID          string
	AccountID   string
	Direction   EntryDirection
	Amount      decimal.Decimal
	Description string
	ReferenceID string
	Status      EntryStatus
	CreatedAt   time.Time
}

// Signed returns the amount with the direction applied: debits are negative,
// credits positive.
func (e *Entry) Signed() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
