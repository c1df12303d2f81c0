package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/usecase"
	"github.com/nmarks/payflow/internal/usecase/mocks"
)

type paymentMocks struct {
	ledgerMocks
	paymentRepo *mocks.MockPaymentRepository
	settlement  *mocks.MockSettlementGateway
}

func newPaymentMocks(ctrl *gomock.Controller) paymentMocks {
	return paymentMocks{
		ledgerMocks: newLedgerMocks(ctrl),
		paymentRepo: mocks.NewMockPaymentRepository(ctrl),
		settlement:  mocks.NewMockSettlementGateway(ctrl),
	}
}

func (m paymentMocks) paymentUsecase() *usecase.PaymentUseCase {
	ledger := m.ledgerMocks.usecase()
	risk := usecase.NewRiskScorer(usecase.RiskConfig{
		LargeAmountThreshold: decimal.NewFromInt(1000),
		VelocityLimit:        10,
		VelocityWindow:       time.Hour,
	}, ledger)

	return usecase.NewPaymentUseCase(m.txManager, m.accountRepo, m.paymentRepo, m.outboxRepo,
		ledger, risk, m.settlement, m.idGen, nil, nil)
}

func TestPaymentUseCase_CreatePayment_ScheduledFuture(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	source := &domain.Account{ID: "acc-1", OwnerID: "user-1", Currency: "USD"}
	payee := "utilities inc"
	future := time.Now().Add(24 * time.Hour)

	m.idGen.EXPECT().Generate().Return("pay-1")
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(source, nil)
	m.entryRepo.EXPECT().CountByAccountSince(gomock.Any(), "acc-1", gomock.Any()).Return(int64(0), nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	m.paymentRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.idGen.EXPECT().Generate().Return("ev-1")
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).
		Do(func(_ context.Context, _ usecase.Transaction, e *domain.OutboxEvent) {
			if e.EventType != domain.EventTypePaymentCreated {
				t.Errorf("expected payment.created, got %s", e.EventType)
			}
		}).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	payment, err := m.paymentUsecase().CreatePayment(context.Background(), usecase.CreatePaymentInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		Amount:          decimal.NewFromInt(50),
		Currency:        "USD",
		Kind:            domain.PaymentKindBillPay,
		ScheduledAt:     &future,
		ExternalPayee:   &payee,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Status != domain.PaymentStatusScheduled {
		t.Errorf("expected scheduled, got %s", payment.Status)
	}
}

func TestPaymentUseCase_CreatePayment_HighRiskRoutesToReview(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	source := &domain.Account{ID: "acc-1", OwnerID: "user-1", Currency: "USD"}
	payee := "big vendor"

	m.idGen.EXPECT().Generate().Return("pay-1")
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(source, nil)
	m.entryRepo.EXPECT().CountByAccountSince(gomock.Any(), "acc-1", gomock.Any()).Return(int64(0), nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	m.paymentRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.idGen.EXPECT().Generate().Return("ev-1")
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	// Very large external payment: 25 + 25 + 15 = 65 > 50.
	payment, err := m.paymentUsecase().CreatePayment(context.Background(), usecase.CreatePaymentInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		Amount:          decimal.NewFromInt(20000),
		Currency:        "USD",
		Kind:            domain.PaymentKindPayment,
		ExternalPayee:   &payee,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Status != domain.PaymentStatusPendingReview {
		t.Errorf("expected pending_review, got %s", payment.Status)
	}
	if payment.RiskScore <= usecase.ReviewThreshold {
		t.Errorf("expected score above threshold, got %d", payment.RiskScore)
	}
}

func TestPaymentUseCase_CreatePayment_ImmediateInternalExecution(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	source := &domain.Account{ID: "acc-1", OwnerID: "user-1", Currency: "USD", Balance: decimal.NewFromInt(500)}
	destAccount := &domain.Account{ID: "acc-2", OwnerID: "user-2", Currency: "USD"}
	dest := "acc-2"

	m.idGen.EXPECT().Generate().Return("id").AnyTimes()
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(source, nil).AnyTimes()
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-2").Return(destAccount, nil).AnyTimes()
	m.entryRepo.EXPECT().CountByAccountSince(gomock.Any(), "acc-1", gomock.Any()).Return(int64(0), nil)

	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil).Times(2)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(2)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil).Times(2)

	m.paymentRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.accountRepo.EXPECT().ApplyDelta(gomock.Any(), m.tx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	m.entryRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil).Times(2)
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil).AnyTimes()
	m.paymentRepo.EXPECT().TransitionStatus(gomock.Any(), m.tx, gomock.Any(),
		[]domain.PaymentStatus{domain.PaymentStatusProcessing},
		domain.PaymentStatusCompleted, gomock.Any(), gomock.Nil()).Return(true, nil)
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	payment, err := m.paymentUsecase().CreatePayment(context.Background(), usecase.CreatePaymentInput{
		CallerID:             "user-1",
		SourceAccountID:      "acc-1",
		DestinationAccountID: &dest,
		Amount:               decimal.NewFromInt(100),
		Currency:             "USD",
		Kind:                 domain.PaymentKindTransfer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Status != domain.PaymentStatusCompleted {
		t.Errorf("expected completed, got %s", payment.Status)
	}
	if payment.ProcessedAt == nil {
		t.Error("expected processed_at to be set")
	}
}

func TestPaymentUseCase_CreatePayment_NotOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	m.idGen.EXPECT().Generate().Return("pay-1")
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").
		Return(&domain.Account{ID: "acc-1", OwnerID: "someone-else", Currency: "USD"}, nil)

	payee := "vendor"
	_, err := m.paymentUsecase().CreatePayment(context.Background(), usecase.CreatePaymentInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		Amount:          decimal.NewFromInt(10),
		Currency:        "USD",
		Kind:            domain.PaymentKindPayment,
		ExternalPayee:   &payee,
	})
	if err != domain.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestPaymentUseCase_CreatePayment_MissingPayee(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)
	m.idGen.EXPECT().Generate().Return("pay-1")

	_, err := m.paymentUsecase().CreatePayment(context.Background(), usecase.CreatePaymentInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		Amount:          decimal.NewFromInt(10),
		Currency:        "USD",
		Kind:            domain.PaymentKindPayment,
	})
	if err != domain.ErrMissingPayee {
		t.Fatalf("expected ErrMissingPayee, got %v", err)
	}
}

func TestPaymentUseCase_Execute_SettlementDeclineMarksFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	source := &domain.Account{ID: "acc-1", OwnerID: "user-1", Currency: "USD"}
	payee := "declined vendor"

	m.idGen.EXPECT().Generate().Return("id").AnyTimes()
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(source, nil).AnyTimes()
	m.entryRepo.EXPECT().CountByAccountSince(gomock.Any(), "acc-1", gomock.Any()).Return(int64(0), nil)

	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil).Times(2)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(2)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil).Times(2)
	m.paymentRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil).Times(2)

	declineErr := domain.ErrSettlementFailed
	m.settlement.EXPECT().Settle(gomock.Any(), gomock.Any()).Return(declineErr)

	m.paymentRepo.EXPECT().TransitionStatus(gomock.Any(), m.tx, gomock.Any(),
		[]domain.PaymentStatus{domain.PaymentStatusProcessing},
		domain.PaymentStatusFailed, gomock.Any(), gomock.Not(gomock.Nil())).Return(true, nil)

	payment, err := m.paymentUsecase().CreatePayment(context.Background(), usecase.CreatePaymentInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		Amount:          decimal.NewFromInt(10),
		Currency:        "USD",
		Kind:            domain.PaymentKindPayment,
		ExternalPayee:   &payee,
	})
	if !errors.Is(err, domain.ErrSettlementFailed) {
		t.Fatalf("expected settlement failure, got %v", err)
	}

	if payment == nil || payment.Status != domain.PaymentStatusFailed {
		t.Fatalf("expected failed payment alongside the error, got %+v", payment)
	}
	if payment.FailureReason == nil {
		t.Error("expected a failure reason")
	}
}

func TestPaymentUseCase_ExecuteDue_AlreadyClaimed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	m.paymentRepo.EXPECT().GetByID(gomock.Any(), "pay-1").
		Return(&domain.Payment{ID: "pay-1", Status: domain.PaymentStatusScheduled, SourceAccountID: "acc-1"}, nil)
	m.paymentRepo.EXPECT().Claim(gomock.Any(), "pay-1",
		[]domain.PaymentStatus{domain.PaymentStatusScheduled}, domain.PaymentStatusProcessing).
		Return(false, nil)

	payment, err := m.paymentUsecase().ExecuteDue(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment != nil {
		t.Fatal("expected nil payment when the claim was lost")
	}
}

func TestPaymentUseCase_CancelPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	m.paymentRepo.EXPECT().GetByID(gomock.Any(), "pay-1").
		Return(&domain.Payment{ID: "pay-1", Status: domain.PaymentStatusScheduled, SourceAccountID: "acc-1", Amount: decimal.NewFromInt(10), Currency: "USD"}, nil)
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").
		Return(&domain.Account{ID: "acc-1", OwnerID: "user-1"}, nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	m.paymentRepo.EXPECT().TransitionStatus(gomock.Any(), m.tx, "pay-1",
		[]domain.PaymentStatus{domain.PaymentStatusScheduled, domain.PaymentStatusPendingReview},
		domain.PaymentStatusCancelled, gomock.Any(), gomock.Nil()).Return(true, nil)
	m.idGen.EXPECT().Generate().Return("ev-1")
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).
		Do(func(_ context.Context, _ usecase.Transaction, e *domain.OutboxEvent) {
			if e.EventType != domain.EventTypePaymentCancelled {
				t.Errorf("expected payment.cancelled, got %s", e.EventType)
			}
		}).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	payment, err := m.paymentUsecase().CancelPayment(context.Background(), "pay-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusCancelled {
		t.Errorf("expected cancelled, got %s", payment.Status)
	}
}

func TestPaymentUseCase_CancelPayment_Terminal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	m.paymentRepo.EXPECT().GetByID(gomock.Any(), "pay-1").
		Return(&domain.Payment{ID: "pay-1", Status: domain.PaymentStatusCompleted, SourceAccountID: "acc-1"}, nil)
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").
		Return(&domain.Account{ID: "acc-1", OwnerID: "user-1"}, nil)

	_, err := m.paymentUsecase().CancelPayment(context.Background(), "pay-1", "user-1")
	if err != domain.ErrAlreadyTerminal {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestPaymentUseCase_ReviewPayment_Reject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	m.paymentRepo.EXPECT().GetByID(gomock.Any(), "pay-1").
		Return(&domain.Payment{ID: "pay-1", Status: domain.PaymentStatusPendingReview, SourceAccountID: "acc-1", Amount: decimal.NewFromInt(10), Currency: "USD"}, nil)
	m.accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").
		Return(&domain.Account{ID: "acc-1", OwnerID: "user-1"}, nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	m.paymentRepo.EXPECT().TransitionStatus(gomock.Any(), m.tx, "pay-1",
		[]domain.PaymentStatus{domain.PaymentStatusPendingReview},
		domain.PaymentStatusFailed, gomock.Any(), gomock.Not(gomock.Nil())).Return(true, nil)
	m.idGen.EXPECT().Generate().Return("ev-1")
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	payment, err := m.paymentUsecase().ReviewPayment(context.Background(), usecase.ReviewPaymentInput{
		PaymentID: "pay-1",
		Approve:   false,
		Reason:    "looks fraudulent",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected failed, got %s", payment.Status)
	}
	if payment.FailureReason == nil || *payment.FailureReason != "looks fraudulent" {
		t.Error("expected review reason to be recorded")
	}
}

func TestPaymentUseCase_ReviewPayment_NotPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newPaymentMocks(ctrl)

	m.paymentRepo.EXPECT().GetByID(gomock.Any(), "pay-1").
		Return(&domain.Payment{ID: "pay-1", Status: domain.PaymentStatusProcessing, SourceAccountID: "acc-1"}, nil)

	_, err := m.paymentUsecase().ReviewPayment(context.Background(), usecase.ReviewPaymentInput{
		PaymentID: "pay-1",
		Approve:   true,
	})
	if err != domain.ErrAlreadyTerminal {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
}
