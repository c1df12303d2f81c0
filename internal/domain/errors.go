package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Transfer errors
	ErrSameAccount      = errors.New("cannot transfer to same account")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrCurrencyMismatch = errors.New("cannot transfer between different currencies")
	ErrEntryNotFound    = errors.New("entry not found")

	// Payment errors
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyTerminal  = errors.New("payment is in a terminal state")
	ErrAccessDenied     = errors.New("caller does not own the source account")
	ErrSettlementFailed = errors.New("external settlement declined")
	ErrInvalidKind      = errors.New("invalid payment kind")
	ErrMissingDestination = errors.New("transfer payment requires a destination account")
	ErrMissingPayee       = errors.New("payment requires a destination account or external payee")

	// Event errors
	ErrUnknownEventType      = errors.New("unknown event type")
	ErrEventDeliveryDeferred = errors.New("event delivery deferred: channel unavailable")
)
