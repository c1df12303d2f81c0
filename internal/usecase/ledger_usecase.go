package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/infrastructure/metrics"
)

// LedgerUseCase is the ledger store: it owns balance mutation and the
// append-only entry log. Every balance change goes through the account
// repository's atomic delta primitive, never a read-then-write.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	cache       Cache
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	cache Cache,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		cache:       cache,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// CreateTransferInput represents input for creating a transfer.
type CreateTransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Description   string
}

// Transfer atomically moves funds between two accounts: a debit and a credit
// leg sharing a reference id, committed with their outbox events in one
// transaction.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input CreateTransferInput) (*domain.Transfer, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transfer, err := uc.TransferTx(txCtx, tx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.afterMutation(ctx, input.FromAccountID, input.ToAccountID)

	if uc.metrics != nil {
		uc.metrics.TransfersCompleted.Inc()
	}

	return transfer, nil
}

// TransferTx performs the transfer legs inside a caller-owned transaction so
// a payment's status change and its ledger mutation share one atomic scope.
func (uc *LedgerUseCase) TransferTx(ctx context.Context, tx Transaction, input CreateTransferInput) (*domain.Transfer, error) {
	fromAccount, err := uc.accountRepo.GetByID(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}

	toAccount, err := uc.accountRepo.GetByID(ctx, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	if fromAccount.Currency != toAccount.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	now := time.Now().UTC()
	transfer := &domain.Transfer{
		ReferenceID:   uc.idGen.Generate(),
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Currency:      fromAccount.Currency,
		Description:   input.Description,
		CreatedAt:     now,
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	// Apply deltas in sorted account order (deadlock prevention). The debit
	// delta carries the sufficient-funds guard.
	deltas := []struct {
		accountID string
		delta     decimal.Decimal
	}{
		{input.FromAccountID, input.Amount.Neg()},
		{input.ToAccountID, input.Amount},
	}
	if deltas[1].accountID < deltas[0].accountID {
		deltas[0], deltas[1] = deltas[1], deltas[0]
	}

	for _, d := range deltas {
		if err := uc.accountRepo.ApplyDelta(ctx, tx, d.accountID, d.delta, now); err != nil {
			return nil, err
		}
	}

	debitEntry := &domain.Entry{
		ID:          uc.idGen.Generate(),
		AccountID:   input.FromAccountID,
		Direction:   domain.DirectionDebit,
		Amount:      input.Amount,
		Description: input.Description,
		ReferenceID: transfer.ReferenceID,
		Status:      domain.EntryStatusPosted,
		CreatedAt:   now,
	}

	creditEntry := &domain.Entry{
		ID:          uc.idGen.Generate(),
		AccountID:   input.ToAccountID,
		Direction:   domain.DirectionCredit,
		Amount:      input.Amount,
		Description: input.Description,
		ReferenceID: transfer.ReferenceID,
		Status:      domain.EntryStatusPosted,
		CreatedAt:   now,
	}

	for _, entry := range []*domain.Entry{debitEntry, creditEntry} {
		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	transfer.DebitEntry = debitEntry
	transfer.CreditEntry = creditEntry

	if err := uc.emitEntryEvents(ctx, tx, fromAccount, debitEntry, now); err != nil {
		return nil, err
	}
	if err := uc.emitEntryEvents(ctx, tx, toAccount, creditEntry, now); err != nil {
		return nil, err
	}

	completed := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transfer.ReferenceID,
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferCompleted,
		Payload: domain.EventPayload(domain.TransferCompletedEvent{
			ReferenceID:   transfer.ReferenceID,
			FromAccountID: transfer.FromAccountID,
			ToAccountID:   transfer.ToAccountID,
			OwnerID:       fromAccount.OwnerID,
			Amount:        transfer.Amount.String(),
			Currency:      transfer.Currency,
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, completed); err != nil {
		return nil, err
	}

	return transfer, nil
}

// RecordEntryInput represents input for a single-leg mutation.
type RecordEntryInput struct {
	AccountID   string
	Direction   domain.EntryDirection
	Amount      decimal.Decimal
	Description string
	ReferenceID string
}

// RecordEntry applies a single-leg mutation (deposit, withdrawal, fee) with
// the same atomicity and failure rules as a transfer leg.
func (uc *LedgerUseCase) RecordEntry(ctx context.Context, input RecordEntryInput) (*domain.Entry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.RecordEntryTx(txCtx, tx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.afterMutation(ctx, input.AccountID)

	if uc.metrics != nil {
		uc.metrics.EntriesRecorded.Inc()
	}

	return entry, nil
}

// RecordEntryTx performs a single-leg mutation inside a caller-owned
// transaction.
func (uc *LedgerUseCase) RecordEntryTx(ctx context.Context, tx Transaction, input RecordEntryInput) (*domain.Entry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	delta := input.Amount
	if input.Direction == domain.DirectionDebit {
		delta = input.Amount.Neg()
	}

	if err := uc.accountRepo.ApplyDelta(ctx, tx, input.AccountID, delta, now); err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		ID:          uc.idGen.Generate(),
		AccountID:   input.AccountID,
		Direction:   input.Direction,
		Amount:      input.Amount,
		Description: input.Description,
		ReferenceID: input.ReferenceID,
		Status:      domain.EntryStatusPosted,
		CreatedAt:   now,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.emitEntryEvents(ctx, tx, account, entry, now); err != nil {
		return nil, err
	}

	return entry, nil
}

// CurrentBalance returns a read-committed point-in-time balance.
func (uc *LedgerUseCase) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, balanceCacheKey(accountID)); err == nil {
			if d, derr := decimal.NewFromString(cached); derr == nil {
				return d, nil
			}
		}
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, balanceCacheKey(accountID), account.Balance.String(), BalanceCacheTTL)
	}

	return account.Balance, nil
}

// RecentActivityCount counts entries for an account within a trailing window.
func (uc *LedgerUseCase) RecentActivityCount(ctx context.Context, accountID string, window time.Duration) (int64, error) {
	return uc.entryRepo.CountByAccountSince(ctx, accountID, time.Now().UTC().Add(-window))
}

// ListEntriesByAccount lists entries for an account.
func (uc *LedgerUseCase) ListEntriesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	limit, offset = clampPagination(limit, offset)
	return uc.entryRepo.ListByAccount(ctx, accountID, limit, offset)
}

// ListEntriesByReference lists the legs sharing a reference id.
func (uc *LedgerUseCase) ListEntriesByReference(ctx context.Context, referenceID string) ([]*domain.Entry, error) {
	return uc.entryRepo.ListByReference(ctx, referenceID)
}

func (uc *LedgerUseCase) emitEntryEvents(ctx context.Context, tx Transaction, account *domain.Account, entry *domain.Entry, now time.Time) error {
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeTransactionCreated,
		Payload: domain.EventPayload(domain.TransactionCreatedEvent{
			EntryID:     entry.ID,
			AccountID:   entry.AccountID,
			OwnerID:     account.OwnerID,
			Direction:   string(entry.Direction),
			Amount:      entry.Amount.String(),
			Currency:    account.Currency,
			Status:      string(entry.Status),
			ReferenceID: entry.ReferenceID,
		}),
		CreatedAt: now,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

// afterMutation drops cached balances for the touched accounts.
func (uc *LedgerUseCase) afterMutation(ctx context.Context, accountIDs ...string) {
	if uc.cache == nil {
		return
	}
	for _, id := range accountIDs {
		_ = uc.cache.Delete(ctx, balanceCacheKey(id))
	}
}

func balanceCacheKey(accountID string) string {
	return "balance:" + accountID
}

func clampPagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
