package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmarks/payflow/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// ApplyDelta atomically adjusts the balance by a signed delta in a single
	// statement. A negative delta that would take the balance below zero
	// fails with domain.ErrInsufficientFunds and changes nothing.
	ApplyDelta(ctx context.Context, tx Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	ListByReference(ctx context.Context, referenceID string) ([]*domain.Entry, error)
	CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int64, error)
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	OwnerID         string
	SourceAccountID string
	Status          domain.PaymentStatus
	Limit           int
	Offset          int
}

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*domain.Payment, error)
	// TransitionStatus moves a payment between statuses with a compare-and-
	// swap on the current status. Returns false when the payment was not in
	// any of the from statuses, without touching the row.
	TransitionStatus(ctx context.Context, tx Transaction, id string, from []domain.PaymentStatus, to domain.PaymentStatus, processedAt *time.Time, failureReason *string) (bool, error)
	// Claim is TransitionStatus outside a surrounding transaction, used by
	// the scheduler and review path to claim a payment for execution.
	Claim(ctx context.Context, id string, from []domain.PaymentStatus, to domain.PaymentStatus) (bool, error)
	ListDueScheduled(ctx context.Context, due time.Time, limit int) ([]*domain.Payment, error)
}

// OutboxRepository defines data access for outbox events. Create assigns the
// next per-aggregate version inside the insert statement.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// BalanceDrift reports an account whose balance disagrees with the signed
// sum of its entries.
type BalanceDrift struct {
	AccountID string
	Balance   decimal.Decimal
	EntrySum  decimal.Decimal
}

// ConsistencyRepository defines ledger-wide invariant checks.
type ConsistencyRepository interface {
	FindBalanceDrift(ctx context.Context, limit int) ([]BalanceDrift, error)
}

// SettlementGateway settles payments against an external payee. A decline is
// reported as an error wrapping domain.ErrSettlementFailed.
type SettlementGateway interface {
	Settle(ctx context.Context, payment *domain.Payment) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore caches responses keyed by client idempotency keys.
type IdempotencyStore interface {
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Cache defines caching operations for hot reads.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
