package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/usecase"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Currency string `json:"currency" validate:"required,len=3,uppercase"`
}

// Validate validates the request.
func (r *CreateAccountRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(ownerID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerID:  ownerID,
		Name:     r.Name,
		Currency: r.Currency,
	}
}

// CreateTransferRequest represents a request to create a synchronous
// transfer.
type CreateTransferRequest struct {
	FromAccountID string          `json:"from_account_id" validate:"required"`
	ToAccountID   string          `json:"to_account_id"   validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"     validate:"max=500"`
}

// Validate validates the request.
func (r *CreateTransferRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(callerID string) usecase.CreateOwnedTransferInput {
	return usecase.CreateOwnedTransferInput{
		CallerID:      callerID,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        r.Amount,
		Description:   r.Description,
	}
}

// CreatePaymentRequest represents a request to create a payment.
type CreatePaymentRequest struct {
	SourceAccountID      string          `json:"source_account_id" validate:"required"`
	DestinationAccountID *string         `json:"destination_account_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"    validate:"required,len=3,uppercase"`
	Kind                 string          `json:"kind"        validate:"required,oneof=transfer payment bill_pay"`
	Description          string          `json:"description" validate:"max=500"`
	ScheduledAt          *time.Time      `json:"scheduled_at,omitempty"`
	ExternalPayee        *string         `json:"external_payee,omitempty"`
}

// Validate validates the request.
func (r *CreatePaymentRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreatePaymentRequest) ToUseCaseInput(callerID string) usecase.CreatePaymentInput {
	return usecase.CreatePaymentInput{
		CallerID:             callerID,
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		Amount:               r.Amount,
		Currency:             r.Currency,
		Kind:                 domain.PaymentKind(r.Kind),
		Description:          r.Description,
		ScheduledAt:          r.ScheduledAt,
		ExternalPayee:        r.ExternalPayee,
	}
}

// ReviewPaymentRequest resolves a pending manual review.
type ReviewPaymentRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Reason  string `json:"reason"  validate:"max=500"`
}

// Validate validates the request.
func (r *ReviewPaymentRequest) Validate() error {
	return validate.Struct(r)
}

// DepositRequest represents a single-leg credit to an account.
type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
}

// Validate validates the request.
func (r *DepositRequest) Validate() error {
	return validate.Struct(r)
}

// TokenRequest mints a dev-mode caller identity token.
type TokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name"    validate:"max=255"`
	Role   string `json:"role"    validate:"required,oneof=admin operator member"`
}

// Validate validates the request.
func (r *TokenRequest) Validate() error {
	return validate.Struct(r)
}
