
package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	Name      string             `json:"name"`
	Currency  string             `json:"currency"`
	Balance   pgtype.Numeric     `json:"balance"`
	Version   int64              `json:"version"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Entry struct {
	ID          string             `json:"id"`
	AccountID   string             `json:"account_id"`
	Direction   string             `json:"direction"`
	Amount      pgtype.Numeric     `json:"amount"`
	Description string             `json:"description"`
	ReferenceID string             `json:"reference_id"`
	Status      string             `json:"status"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Payment struct {
	ID                   string             `json:"id"`
	SourceAccountID      string             `json:"source_account_id"`
	DestinationAccountID pgtype.Text        `json:"destination_account_id"`
	Amount               pgtype.Numeric     `json:"amount"`
	Currency             string             `json:"currency"`
	Kind                 string             `json:"kind"`
	Description          string             `json:"description"`
	Status               string             `json:"status"`
	ScheduledAt          pgtype.Timestamptz `json:"scheduled_at"`
	RiskScore            int32              `json:"risk_score"`
	ExternalPayee        pgtype.Text        `json:"external_payee"`
	FailureReason        pgtype.Text        `json:"failure_reason"`
	CreatedAt            pgtype.Timestamptz `json:"created_at"`
	ProcessedAt          pgtype.Timestamptz `json:"processed_at"`
}

type Event struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	Version       int64              `json:"version"`
	Published     bool               `json:"published"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
}
