package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Name:      a.Name,
		Currency:  a.Currency,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps an account listing.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// BalanceResponse represents a point-in-time balance.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ReferenceID   string          `json:"reference_id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	DebitEntry    *EntryResponse  `json:"debit_entry,omitempty"`
	CreditEntry   *EntryResponse  `json:"credit_entry,omitempty"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	resp := &TransferResponse{
		ReferenceID:   t.ReferenceID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Description:   t.Description,
		CreatedAt:     t.CreatedAt,
	}
	if t.DebitEntry != nil {
		resp.DebitEntry = EntryFromDomain(t.DebitEntry)
	}
	if t.CreditEntry != nil {
		resp.CreditEntry = EntryFromDomain(t.CreditEntry)
	}
	return resp
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Direction:   string(e.Direction),
		Amount:      e.Amount,
		Description: e.Description,
		ReferenceID: e.ReferenceID,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID                   string          `json:"id"`
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID *string         `json:"destination_account_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Kind                 string          `json:"kind"`
	Description          string          `json:"description,omitempty"`
	Status               string          `json:"status"`
	ScheduledAt          *time.Time      `json:"scheduled_at,omitempty"`
	RiskScore            int             `json:"risk_score"`
	ExternalPayee        *string         `json:"external_payee,omitempty"`
	FailureReason        *string         `json:"failure_reason,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	ProcessedAt          *time.Time      `json:"processed_at,omitempty"`
}

// PaymentFromDomain converts domain payment to response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                   p.ID,
		SourceAccountID:      p.SourceAccountID,
		DestinationAccountID: p.DestinationAccountID,
		Amount:               p.Amount,
		Currency:             p.Currency,
		Kind:                 string(p.Kind),
		Description:          p.Description,
		Status:               string(p.Status),
		ScheduledAt:          p.ScheduledAt,
		RiskScore:            p.RiskScore,
		ExternalPayee:        p.ExternalPayee,
		FailureReason:        p.FailureReason,
		CreatedAt:            p.CreatedAt,
		ProcessedAt:          p.ProcessedAt,
	}
}

// PaymentsFromDomain converts domain payments to responses.
func PaymentsFromDomain(payments []*domain.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = PaymentFromDomain(p)
	}
	return result
}

// EventResponse represents an outbox event in API responses.
type EventResponse struct {
	ID            string         `json:"id"`
	AggregateID   string         `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
	Version       int64          `json:"version"`
	Published     bool           `json:"published"`
	CreatedAt     time.Time      `json:"created_at"`
}

// EventFromDomain converts an outbox event to response.
func EventFromDomain(e *domain.OutboxEvent) *EventResponse {
	return &EventResponse{
		ID:            e.ID,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		EventType:     e.EventType,
		Payload:       e.Payload,
		Version:       e.Version,
		Published:     e.Published,
		CreatedAt:     e.CreatedAt,
	}
}

// EventsFromDomain converts outbox events to responses.
func EventsFromDomain(events []*domain.OutboxEvent) []*EventResponse {
	result := make([]*EventResponse, len(events))
	for i, e := range events {
		result[i] = EventFromDomain(e)
	}
	return result
}

// BalanceDriftResponse reports one drifted account.
type BalanceDriftResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	EntrySum  decimal.Decimal `json:"entry_sum"`
}

// ConsistencyResponse reports the outcome of a ledger consistency check.
type ConsistencyResponse struct {
	Consistent bool                   `json:"consistent"`
	Drift      []BalanceDriftResponse `json:"drift,omitempty"`
}

// ConsistencyFromDrift builds a consistency response.
func ConsistencyFromDrift(drift []usecase.BalanceDrift) *ConsistencyResponse {
	resp := &ConsistencyResponse{Consistent: len(drift) == 0}
	for _, d := range drift {
		resp.Drift = append(resp.Drift, BalanceDriftResponse{
			AccountID: d.AccountID,
			Balance:   d.Balance,
			EntrySum:  d.EntrySum,
		})
	}
	return resp
}

// TokenResponse carries a minted dev-mode token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
