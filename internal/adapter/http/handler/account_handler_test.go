package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/usecase"
)

type fakeAccountService struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn    func(ctx context.Context, id string) (*domain.Account, error)
	listFn   func(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
}

func (f *fakeAccountService) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return f.createFn(ctx, input)
}

func (f *fakeAccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return f.getFn(ctx, id)
}

func (f *fakeAccountService) ListAccounts(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	return f.listFn(ctx, ownerID, limit, offset)
}

type fakeLedgerService struct {
	recordFn  func(ctx context.Context, input usecase.RecordEntryInput) (*domain.Entry, error)
	balanceFn func(ctx context.Context, accountID string) (decimal.Decimal, error)
}

func (f *fakeLedgerService) RecordEntry(ctx context.Context, input usecase.RecordEntryInput) (*domain.Entry, error) {
	return f.recordFn(ctx, input)
}

func (f *fakeLedgerService) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return f.balanceFn(ctx, accountID)
}

func TestAccountHandler_Create(t *testing.T) {
	svc := &fakeAccountService{
		createFn: func(_ context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			if input.OwnerID != "user-1" {
				t.Errorf("expected owner user-1, got %s", input.OwnerID)
			}
			return &domain.Account{ID: "acc-1", OwnerID: input.OwnerID, Name: input.Name, Currency: input.Currency, Version: 1}, nil
		},
	}
	h := NewAccountHandler(svc, &fakeLedgerService{})

	body := `{"name":"Checking","currency":"USD"}`
	req := authedRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body), member("user-1"))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] != "acc-1" || resp["owner_id"] != "user-1" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestAccountHandler_Create_InvalidBody(t *testing.T) {
	h := NewAccountHandler(&fakeAccountService{}, &fakeLedgerService{})

	req := authedRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(`{"name":"Checking","currency":"usd"}`), member("user-1"))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_OwnershipEnforced(t *testing.T) {
	svc := &fakeAccountService{
		getFn: func(_ context.Context, id string) (*domain.Account, error) {
			return &domain.Account{ID: id, OwnerID: "someone-else"}, nil
		},
	}
	h := NewAccountHandler(svc, &fakeLedgerService{})

	req := authedRequest(http.MethodGet, "/api/v1/accounts/acc-1", nil, member("user-1"))
	rec := httptest.NewRecorder()

	h.Get(rec, withURLParam(req, "id", "acc-1"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_ReviewerMaySeeForeignAccount(t *testing.T) {
	svc := &fakeAccountService{
		getFn: func(_ context.Context, id string) (*domain.Account, error) {
			return &domain.Account{ID: id, OwnerID: "someone-else"}, nil
		},
	}
	h := NewAccountHandler(svc, &fakeLedgerService{})

	operator := &domain.User{ID: "op-1", Role: domain.RoleOperator}
	req := authedRequest(http.MethodGet, "/api/v1/accounts/acc-1", nil, operator)
	rec := httptest.NewRecorder()

	h.Get(rec, withURLParam(req, "id", "acc-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Balance(t *testing.T) {
	svc := &fakeAccountService{
		getFn: func(_ context.Context, id string) (*domain.Account, error) {
			return &domain.Account{ID: id, OwnerID: "user-1"}, nil
		},
	}
	ledger := &fakeLedgerService{
		balanceFn: func(_ context.Context, accountID string) (decimal.Decimal, error) {
			return decimal.RequireFromString("123.45"), nil
		},
	}
	h := NewAccountHandler(svc, ledger)

	req := authedRequest(http.MethodGet, "/api/v1/accounts/acc-1/balance", nil, member("user-1"))
	rec := httptest.NewRecorder()

	h.Balance(rec, withURLParam(req, "id", "acc-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["balance"] != "123.45" {
		t.Errorf("expected balance 123.45, got %v", resp["balance"])
	}
}

func TestAccountHandler_Deposit(t *testing.T) {
	svc := &fakeAccountService{
		getFn: func(_ context.Context, id string) (*domain.Account, error) {
			return &domain.Account{ID: id, OwnerID: "user-1"}, nil
		},
	}
	ledger := &fakeLedgerService{
		recordFn: func(_ context.Context, input usecase.RecordEntryInput) (*domain.Entry, error) {
			if input.Direction != domain.DirectionCredit {
				t.Errorf("deposit must credit, got %s", input.Direction)
			}
			return &domain.Entry{ID: "entry-1", AccountID: input.AccountID, Direction: input.Direction, Amount: input.Amount}, nil
		},
	}
	h := NewAccountHandler(svc, ledger)

	body := `{"amount":"250","description":"payroll"}`
	req := authedRequest(http.MethodPost, "/api/v1/accounts/acc-1/deposit", strings.NewReader(body), member("user-1"))
	rec := httptest.NewRecorder()

	h.Deposit(rec, withURLParam(req, "id", "acc-1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAccountHandler_Deposit_NotOwner(t *testing.T) {
	svc := &fakeAccountService{
		getFn: func(_ context.Context, id string) (*domain.Account, error) {
			return &domain.Account{ID: id, OwnerID: "someone-else"}, nil
		},
	}
	h := NewAccountHandler(svc, &fakeLedgerService{})

	req := authedRequest(http.MethodPost, "/api/v1/accounts/acc-1/deposit", strings.NewReader(`{"amount":"1"}`), member("user-1"))
	rec := httptest.NewRecorder()

	h.Deposit(rec, withURLParam(req, "id", "acc-1"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
