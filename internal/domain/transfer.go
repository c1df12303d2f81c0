package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is the result of a paired debit/credit moving funds between two
// accounts. Both legs share ReferenceID and commit atomically.
type Transfer struct {
	ReferenceID   string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Currency      string
	Description   string
	CreatedAt     time.Time
	DebitEntry    *Entry
	CreditEntry   *Entry
}

// Validate validates a transfer request before any mutation.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}
