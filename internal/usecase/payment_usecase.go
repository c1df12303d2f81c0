package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/infrastructure/metrics"
)

// PaymentUseCase owns the payment state machine. Ownership and validation
// are enforced here before any call reaches the ledger store.
type PaymentUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	paymentRepo PaymentRepository
	outboxRepo  OutboxRepository
	ledger      *LedgerUseCase
	risk        *RiskScorer
	settlement  SettlementGateway
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	paymentRepo PaymentRepository,
	outboxRepo OutboxRepository,
	ledger *LedgerUseCase,
	risk *RiskScorer,
	settlement SettlementGateway,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		paymentRepo: paymentRepo,
		outboxRepo:  outboxRepo,
		ledger:      ledger,
		risk:        risk,
		settlement:  settlement,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
	}
}

// CreateOwnedTransferInput is the inbound transfer request, carrying the
// caller identity for the ownership check.
type CreateOwnedTransferInput struct {
	CallerID      string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Description   string
}

// CreateTransfer checks ownership of the source account, then executes the
// transfer synchronously through the ledger store.
func (uc *PaymentUseCase) CreateTransfer(ctx context.Context, input CreateOwnedTransferInput) (*domain.Transfer, error) {
	if _, err := uc.loadOwnedAccount(ctx, input.FromAccountID, input.CallerID); err != nil {
		return nil, err
	}

	return uc.ledger.Transfer(ctx, CreateTransferInput{
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Description:   input.Description,
	})
}

// CreatePaymentInput represents input for creating a payment.
type CreatePaymentInput struct {
	CallerID             string
	SourceAccountID      string
	DestinationAccountID *string
	Amount               decimal.Decimal
	Currency             string
	Kind                 domain.PaymentKind
	Description          string
	ScheduledAt          *time.Time
	ExternalPayee        *string
}

// CreatePayment validates and risk-scores a payment request, then either
// executes it immediately or parks it in scheduled/pending_review. The
// created payment and its payment.created event commit together.
func (uc *PaymentUseCase) CreatePayment(ctx context.Context, input CreatePaymentInput) (*domain.Payment, error) {
	now := time.Now().UTC()

	payment := &domain.Payment{
		ID:                   uc.idGen.Generate(),
		SourceAccountID:      input.SourceAccountID,
		DestinationAccountID: input.DestinationAccountID,
		Amount:               input.Amount,
		Currency:             input.Currency,
		Kind:                 input.Kind,
		Description:          input.Description,
		ScheduledAt:          input.ScheduledAt,
		ExternalPayee:        input.ExternalPayee,
		CreatedAt:            now,
	}

	if err := payment.Validate(); err != nil {
		return nil, err
	}
	if payment.DestinationAccountID == nil && payment.ExternalPayee == nil {
		return nil, domain.ErrMissingPayee
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	source, err := uc.loadOwnedAccount(ctx, input.SourceAccountID, input.CallerID)
	if err != nil {
		return nil, err
	}
	if source.Currency != input.Currency {
		return nil, domain.ErrCurrencyMismatch
	}
	if input.DestinationAccountID != nil {
		if _, err := uc.accountRepo.GetByID(ctx, *input.DestinationAccountID); err != nil {
			return nil, err
		}
	}

	assessment, err := uc.risk.Score(ctx, payment)
	if err != nil {
		return nil, err
	}
	payment.RiskScore = assessment.Score

	switch {
	case payment.ScheduledAt != nil && payment.ScheduledAt.After(now):
		payment.Status = domain.PaymentStatusScheduled
	case assessment.RequiresReview:
		payment.Status = domain.PaymentStatusPendingReview
	default:
		payment.Status = domain.PaymentStatusProcessing
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.paymentRepo.Create(txCtx, tx, payment); err != nil {
		return nil, err
	}

	if err := uc.emitPaymentEvent(txCtx, tx, payment, source.OwnerID, domain.EventTypePaymentCreated, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsCreated.WithLabelValues(string(payment.Status)).Inc()
		if assessment.RequiresReview {
			uc.metrics.PaymentsFlaggedForReview.Inc()
		}
	}

	if payment.Status == domain.PaymentStatusProcessing {
		return uc.execute(ctx, payment, source)
	}

	return payment, nil
}

// ExecuteDue claims a due scheduled payment and executes it. Returns
// (nil, nil) when another tick already moved the payment out of scheduled;
// overlapping sweeps are harmless.
func (uc *PaymentUseCase) ExecuteDue(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	claimed, err := uc.paymentRepo.Claim(ctx, payment.ID,
		[]domain.PaymentStatus{domain.PaymentStatusScheduled}, domain.PaymentStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, nil
	}

	payment.Status = domain.PaymentStatusProcessing

	source, err := uc.accountRepo.GetByID(ctx, payment.SourceAccountID)
	if err != nil {
		return nil, err
	}

	return uc.execute(ctx, payment, source)
}

// ReviewPaymentInput resolves a pending manual review. The review decision
// itself comes from an external collaborator; only the transition lives here.
type ReviewPaymentInput struct {
	PaymentID string
	Approve   bool
	Reason    string
}

// ReviewPayment moves a pending_review payment to execution or failure.
func (uc *PaymentUseCase) ReviewPayment(ctx context.Context, input ReviewPaymentInput) (*domain.Payment, error) {
	payment, err := uc.paymentRepo.GetByID(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != domain.PaymentStatusPendingReview {
		return nil, domain.ErrAlreadyTerminal
	}

	source, err := uc.accountRepo.GetByID(ctx, payment.SourceAccountID)
	if err != nil {
		return nil, err
	}

	if !input.Approve {
		reason := input.Reason
		if reason == "" {
			reason = "manual review rejected"
		}
		return uc.markFailed(ctx, payment, source.OwnerID, reason,
			[]domain.PaymentStatus{domain.PaymentStatusPendingReview})
	}

	claimed, err := uc.paymentRepo.Claim(ctx, payment.ID,
		[]domain.PaymentStatus{domain.PaymentStatusPendingReview}, domain.PaymentStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrAlreadyTerminal
	}

	payment.Status = domain.PaymentStatusProcessing

	return uc.execute(ctx, payment, source)
}

// CancelPayment cancels a scheduled or pending_review payment. Cancellation
// is a state transition, never an abort of in-flight execution.
func (uc *PaymentUseCase) CancelPayment(ctx context.Context, paymentID, callerID string) (*domain.Payment, error) {
	payment, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	source, err := uc.loadOwnedAccount(ctx, payment.SourceAccountID, callerID)
	if err != nil {
		return nil, err
	}

	if !payment.CanCancel() {
		return nil, domain.ErrAlreadyTerminal
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	ok, err := uc.paymentRepo.TransitionStatus(txCtx, tx, payment.ID,
		[]domain.PaymentStatus{domain.PaymentStatusScheduled, domain.PaymentStatusPendingReview},
		domain.PaymentStatusCancelled, &now, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Raced with the scheduler or a review decision.
		return nil, domain.ErrAlreadyTerminal
	}

	payment.Status = domain.PaymentStatusCancelled
	payment.ProcessedAt = &now

	if err := uc.emitPaymentEvent(txCtx, tx, payment, source.OwnerID, domain.EventTypePaymentCancelled, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsCancelled.Inc()
	}

	return payment, nil
}

// GetPayment retrieves a payment, scoped to the owner of its source account.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, paymentID, callerID string) (*domain.Payment, error) {
	payment, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.loadOwnedAccount(ctx, payment.SourceAccountID, callerID); err != nil {
		return nil, err
	}

	return payment, nil
}

// ListPaymentsInput represents input for listing payments.
type ListPaymentsInput struct {
	CallerID        string
	SourceAccountID string
	Status          domain.PaymentStatus
	Limit           int
	Offset          int
}

// ListPayments lists the caller's payments.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, input ListPaymentsInput) ([]*domain.Payment, error) {
	limit, offset := clampPagination(input.Limit, input.Offset)

	return uc.paymentRepo.List(ctx, PaymentFilter{
		OwnerID:         input.CallerID,
		SourceAccountID: input.SourceAccountID,
		Status:          input.Status,
		Limit:           limit,
		Offset:          offset,
	})
}

// execute settles and posts a claimed payment. The ledger mutation and the
// transition to completed commit in one transaction; any failure leaves the
// ledger unchanged and marks the payment failed in a follow-up transaction.
func (uc *PaymentUseCase) execute(ctx context.Context, payment *domain.Payment, source *domain.Account) (*domain.Payment, error) {
	start := time.Now()

	if payment.ExternalPayee != nil {
		if err := uc.settlement.Settle(ctx, payment); err != nil {
			failed, ferr := uc.markFailed(ctx, payment, source.OwnerID, err.Error(),
				[]domain.PaymentStatus{domain.PaymentStatusProcessing})
			if ferr != nil {
				return nil, ferr
			}
			return failed, err
		}
	}

	run := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if payment.DestinationAccountID != nil {
			if _, err := uc.ledger.TransferTx(txCtx, tx, CreateTransferInput{
				FromAccountID: payment.SourceAccountID,
				ToAccountID:   *payment.DestinationAccountID,
				Amount:        payment.Amount,
				Description:   payment.Description,
			}); err != nil {
				return err
			}
		} else {
			if _, err := uc.ledger.RecordEntryTx(txCtx, tx, RecordEntryInput{
				AccountID:   payment.SourceAccountID,
				Direction:   domain.DirectionDebit,
				Amount:      payment.Amount,
				Description: payment.Description,
				ReferenceID: payment.ID,
			}); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		ok, err := uc.paymentRepo.TransitionStatus(txCtx, tx, payment.ID,
			[]domain.PaymentStatus{domain.PaymentStatusProcessing},
			domain.PaymentStatusCompleted, &now, nil)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyTerminal
		}

		payment.Status = domain.PaymentStatusCompleted
		payment.ProcessedAt = &now

		if err := uc.emitPaymentEvent(txCtx, tx, payment, source.OwnerID, domain.EventTypePaymentCompleted, ""); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, run)
	} else {
		err = run()
	}

	if err != nil {
		failed, ferr := uc.markFailed(ctx, payment, source.OwnerID, err.Error(),
			[]domain.PaymentStatus{domain.PaymentStatusProcessing})
		if ferr != nil {
			return nil, ferr
		}
		return failed, err
	}

	uc.ledger.afterMutation(ctx, payment.SourceAccountID)
	if payment.DestinationAccountID != nil {
		uc.ledger.afterMutation(ctx, *payment.DestinationAccountID)
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsCompleted.Inc()
		uc.metrics.PaymentDuration.Observe(time.Since(start).Seconds())
	}

	return payment, nil
}

// markFailed transitions the payment to failed with a reason and emits the
// matching event. Runs in its own transaction: the failed ledger mutation
// already rolled back, and the failure must still become visible.
func (uc *PaymentUseCase) markFailed(ctx context.Context, payment *domain.Payment, ownerID, reason string, from []domain.PaymentStatus) (*domain.Payment, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	ok, err := uc.paymentRepo.TransitionStatus(txCtx, tx, payment.ID, from,
		domain.PaymentStatusFailed, &now, &reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAlreadyTerminal
	}

	payment.Status = domain.PaymentStatusFailed
	payment.ProcessedAt = &now
	payment.FailureReason = &reason

	if err := uc.emitPaymentEvent(txCtx, tx, payment, ownerID, domain.EventTypePaymentFailed, reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsFailed.Inc()
	}

	return payment, nil
}

func (uc *PaymentUseCase) emitPaymentEvent(ctx context.Context, tx Transaction, payment *domain.Payment, ownerID, eventType, reason string) error {
	var payload map[string]any

	switch eventType {
	case domain.EventTypePaymentCreated:
		created := domain.PaymentCreatedEvent{
			PaymentID:       payment.ID,
			SourceAccountID: payment.SourceAccountID,
			OwnerID:         ownerID,
			Amount:          payment.Amount.String(),
			Currency:        payment.Currency,
			Kind:            string(payment.Kind),
			Status:          string(payment.Status),
			RiskScore:       payment.RiskScore,
		}
		if payment.DestinationAccountID != nil {
			created.DestinationAccountID = *payment.DestinationAccountID
		}
		if payment.ScheduledAt != nil {
			created.ScheduledAt = payment.ScheduledAt.UTC().Format(time.RFC3339)
		}
		payload = domain.EventPayload(created)
	case domain.EventTypePaymentCompleted:
		payload = domain.EventPayload(domain.PaymentCompletedEvent{
			PaymentID:       payment.ID,
			SourceAccountID: payment.SourceAccountID,
			OwnerID:         ownerID,
			Amount:          payment.Amount.String(),
			Currency:        payment.Currency,
			Status:          string(payment.Status),
		})
	case domain.EventTypePaymentFailed:
		payload = domain.EventPayload(domain.PaymentFailedEvent{
			PaymentID:       payment.ID,
			SourceAccountID: payment.SourceAccountID,
			OwnerID:         ownerID,
			Amount:          payment.Amount.String(),
			Currency:        payment.Currency,
			Status:          string(payment.Status),
			Reason:          reason,
		})
	case domain.EventTypePaymentCancelled:
		payload = domain.EventPayload(domain.PaymentCancelledEvent{
			PaymentID:       payment.ID,
			SourceAccountID: payment.SourceAccountID,
			OwnerID:         ownerID,
			Amount:          payment.Amount.String(),
			Currency:        payment.Currency,
			Status:          string(payment.Status),
		})
	default:
		return domain.ErrUnknownEventType
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   payment.ID,
		AggregateType: domain.AggregateTypePayment,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *PaymentUseCase) loadOwnedAccount(ctx context.Context, accountID, callerID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(callerID) {
		return nil, domain.ErrAccessDenied
	}

	return account, nil
}
