package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is a payment's position in its lifecycle.
type PaymentStatus string

const (
	PaymentStatusScheduled     PaymentStatus = "scheduled"
	PaymentStatusPendingReview PaymentStatus = "pending_review"
	PaymentStatusProcessing    PaymentStatus = "processing"
	PaymentStatusCompleted     PaymentStatus = "completed"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusCancelled     PaymentStatus = "cancelled"
)

// PaymentKind distinguishes internal transfers from external payments.
type PaymentKind string

const (
	PaymentKindTransfer PaymentKind = "transfer"
	PaymentKindPayment  PaymentKind = "payment"
	PaymentKindBillPay  PaymentKind = "bill_pay"
)

var validKinds = map[PaymentKind]bool{
	PaymentKindTransfer: true,
	PaymentKindPayment:  true,
	PaymentKindBillPay:  true,
}

// IsValid checks if the kind is a known payment kind.
func (k PaymentKind) IsValid() bool {
	return validKinds[k]
}

// Payment is a stateful money-movement request. Its execution, when it
// occurs, produces ledger entries in the same atomic scope as the status
// change to completed.
type Payment struct {
	ID                   string
	SourceAccountID      string
	DestinationAccountID *string
	Amount               decimal.Decimal
	Currency             string
	Kind                 PaymentKind
	Description          string
	Status               PaymentStatus
	ScheduledAt          *time.Time
	RiskScore            int
	ExternalPayee        *string
	FailureReason        *string
	CreatedAt            time.Time
	ProcessedAt          *time.Time
}

// IsTerminal reports whether the payment can no longer transition.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanCancel reports whether an explicit cancellation is allowed. A payment
// already processing or terminal cannot be cancelled.
func (p *Payment) CanCancel() bool {
	return p.Status == PaymentStatusScheduled || p.Status == PaymentStatusPendingReview
}

// CanExecute reports whether the payment may be claimed for execution.
func (p *Payment) CanExecute() bool {
	switch p.Status {
	case PaymentStatusScheduled, PaymentStatusPendingReview, PaymentStatusProcessing:
		return true
	}
	return false
}

// Validate validates a payment request before any mutation.
func (p *Payment) Validate() error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !p.Kind.IsValid() {
		return ErrInvalidKind
	}

	if p.Kind == PaymentKindTransfer && p.DestinationAccountID == nil {
		return ErrMissingDestination
	}

	if p.DestinationAccountID != nil && *p.DestinationAccountID == p.SourceAccountID {
		return ErrSameAccount
	}

	return nil
}
