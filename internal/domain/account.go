package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a ledger account that can hold a balance.
type Account struct {
	ID        string
	OwnerID   string
	Name      string
	Currency  string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if account can be debited by amount. There is no
// overdraft policy: a debit that would take the balance negative is rejected.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// OwnedBy checks if the account belongs to the given user.
func (a *Account) OwnedBy(userID string) bool {
	return a.OwnerID == userID
}
