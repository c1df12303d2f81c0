package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	account := &Account{Balance: decimal.NewFromInt(100)}

	if err := account.ValidateDebit(decimal.NewFromInt(100)); err != nil {
		t.Errorf("debit to exactly zero should be allowed, got %v", err)
	}

	if err := account.ValidateDebit(decimal.NewFromInt(101)); err != ErrInsufficientFunds {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestAccount_OwnedBy(t *testing.T) {
	account := &Account{OwnerID: "user-1"}

	if !account.OwnedBy("user-1") {
		t.Error("expected owner to match")
	}
	if account.OwnedBy("user-2") {
		t.Error("expected non-owner to be rejected")
	}
}

func TestEntry_Signed(t *testing.T) {
	debit := &Entry{Direction: DirectionDebit, Amount: decimal.NewFromInt(50)}
	if !debit.Signed().Equal(decimal.NewFromInt(-50)) {
		t.Errorf("expected -50, got %s", debit.Signed())
	}

	credit := &Entry{Direction: DirectionCredit, Amount: decimal.NewFromInt(50)}
	if !credit.Signed().Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected 50, got %s", credit.Signed())
	}
}
