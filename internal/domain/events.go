package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	EventTypeTransactionCreated = "transaction.created"
	EventTypeTransferCompleted  = "transfer.completed"
	EventTypePaymentCreated     = "payment.created"
	EventTypePaymentCompleted   = "payment.completed"
	EventTypePaymentFailed      = "payment.failed"
	EventTypePaymentCancelled   = "payment.cancelled"
)

// Aggregate types
const (
	AggregateTypeAccount  = "account"
	AggregateTypeTransfer = "transfer"
	AggregateTypePayment  = "payment"
)

// OutboxEvent represents a domain event recorded alongside the mutation that
// caused it. Version is monotonically increasing per aggregate; ID is the
// consumer-side dedupe key.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	Version       int64
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionCreatedEvent payload
type TransactionCreatedEvent struct {
	EntryID     string `json:"entry_id"`
	AccountID   string `json:"account_id"`
	OwnerID     string `json:"owner_id"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id,omitempty"`
}

// TransferCompletedEvent payload
type TransferCompletedEvent struct {
	ReferenceID   string `json:"reference_id"`
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	OwnerID       string `json:"owner_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// PaymentCreatedEvent payload
type PaymentCreatedEvent struct {
	PaymentID            string `json:"payment_id"`
	SourceAccountID      string `json:"source_account_id"`
	DestinationAccountID string `json:"destination_account_id,omitempty"`
	OwnerID              string `json:"owner_id"`
	Amount               string `json:"amount"`
	Currency             string `json:"currency"`
	Kind                 string `json:"kind"`
	Status               string `json:"status"`
	ScheduledAt          string `json:"scheduled_at,omitempty"`
	RiskScore            int    `json:"risk_score"`
}

// PaymentCompletedEvent payload
type PaymentCompletedEvent struct {
	PaymentID       string `json:"payment_id"`
	SourceAccountID string `json:"source_account_id"`
	OwnerID         string `json:"owner_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
}

// PaymentFailedEvent payload
type PaymentFailedEvent struct {
	PaymentID       string `json:"payment_id"`
	SourceAccountID string `json:"source_account_id"`
	OwnerID         string `json:"owner_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	Reason          string `json:"reason"`
}

// PaymentCancelledEvent payload
type PaymentCancelledEvent struct {
	PaymentID       string `json:"payment_id"`
	SourceAccountID string `json:"source_account_id"`
	OwnerID         string `json:"owner_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
}

// DecodedEvent pairs an event type with its typed payload. The set of event
// kinds is closed: DecodeEvent matches exhaustively and rejects anything
// outside it, so adding a kind means adding a case here.
type DecodedEvent struct {
	EventType string
	Payload   any
}

// DecodeEvent decodes a raw payload into the typed payload for its event
// type.
func DecodeEvent(eventType string, raw []byte) (*DecodedEvent, error) {
	var payload any

	switch eventType {
	case EventTypeTransactionCreated:
		payload = &TransactionCreatedEvent{}
	case EventTypeTransferCompleted:
		payload = &TransferCompletedEvent{}
	case EventTypePaymentCreated:
		payload = &PaymentCreatedEvent{}
	case EventTypePaymentCompleted:
		payload = &PaymentCompletedEvent{}
	case EventTypePaymentFailed:
		payload = &PaymentFailedEvent{}
	case EventTypePaymentCancelled:
		payload = &PaymentCancelledEvent{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
	}

	return &DecodedEvent{EventType: eventType, Payload: payload}, nil
}

// EventPayload converts a typed payload struct into the generic map stored in
// the outbox row.
func EventPayload(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": "failed to marshal payload"}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return map[string]any{"error": "failed to unmarshal payload"}
	}

	return result
}
