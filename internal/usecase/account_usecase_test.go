package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/usecase"
	"github.com/nmarks/payflow/internal/usecase/mocks"
)

func TestAccountUseCase_CreateAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	idGen.EXPECT().Generate().Return("acc-1")
	accountRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, a *domain.Account) {
			if !a.Balance.IsZero() {
				t.Errorf("new account must start at zero, got %s", a.Balance)
			}
			if a.Version != 1 {
				t.Errorf("expected version 1, got %d", a.Version)
			}
		}).Return(nil)

	uc := usecase.NewAccountUseCase(accountRepo, idGen, nil)

	account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		OwnerID:  "user-1",
		Name:     "Checking",
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.ID != "acc-1" {
		t.Errorf("expected id acc-1, got %s", account.ID)
	}
	if account.OwnerID != "user-1" {
		t.Errorf("expected owner user-1, got %s", account.OwnerID)
	}
}

func TestAccountUseCase_CreateAccount_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    usecase.CreateAccountInput
		expected error
	}{
		{
			name:     "empty name",
			input:    usecase.CreateAccountInput{OwnerID: "user-1", Name: "", Currency: "USD"},
			expected: domain.ErrInvalidAccountName,
		},
		{
			name:     "bad currency",
			input:    usecase.CreateAccountInput{OwnerID: "user-1", Name: "Checking", Currency: "DOGE"},
			expected: domain.ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			uc := usecase.NewAccountUseCase(mocks.NewMockAccountRepository(ctrl), mocks.NewMockIDGenerator(ctrl), nil)

			_, err := uc.CreateAccount(context.Background(), tt.input)
			if !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestAccountUseCase_ListAccounts_ClampsPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().ListByOwner(gomock.Any(), "user-1", usecase.MaxListLimit, 0).
		Return([]*domain.Account{{ID: "acc-1"}}, nil)

	uc := usecase.NewAccountUseCase(accountRepo, mocks.NewMockIDGenerator(ctrl), nil)

	accounts, err := uc.ListAccounts(context.Background(), "user-1", 9999, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
}
