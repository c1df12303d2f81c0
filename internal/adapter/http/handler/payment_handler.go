package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmarks/payflow/internal/adapter/http/dto"
	"github.com/nmarks/payflow/internal/adapter/http/middleware"
	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/usecase"
)

// PaymentService defines the behavior needed by PaymentHandler.
type PaymentService interface {
	CreatePayment(ctx context.Context, input usecase.CreatePaymentInput) (*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID, callerID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, input usecase.ListPaymentsInput) ([]*domain.Payment, error)
	CancelPayment(ctx context.Context, paymentID, callerID string) (*domain.Payment, error)
	ReviewPayment(ctx context.Context, input usecase.ReviewPaymentInput) (*domain.Payment, error)
}

// PaymentHandler handles payment-related HTTP requests.
type PaymentHandler struct {
	paymentUC PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC}
}

// Create creates a payment. An immediate payment executes synchronously; the
// response carries whatever status it ended in.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	payment, err := h.paymentUC.CreatePayment(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		// A synchronous execution failure still produced a failed payment;
		// return it alongside the error detail.
		if payment != nil && payment.Status == domain.PaymentStatusFailed {
			writeJSON(w, http.StatusUnprocessableEntity, dto.PaymentFromDomain(payment))
			return
		}
		writeError(w, mapDomainError(err), "failed to create payment", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentFromDomain(payment))
}

// Get retrieves a payment.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	payment, err := h.paymentUC.GetPayment(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// List lists the caller's payments.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	payments, err := h.paymentUC.ListPayments(r.Context(), usecase.ListPaymentsInput{
		CallerID:        user.ID,
		SourceAccountID: r.URL.Query().Get("source_account_id"),
		Status:          domain.PaymentStatus(r.URL.Query().Get("status")),
		Limit:           parseIntQuery(r, "limit", 20),
		Offset:          parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list payments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentsFromDomain(payments))
}

// Cancel cancels a scheduled or pending-review payment.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	payment, err := h.paymentUC.CancelPayment(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// Review resolves a pending manual review. Routed behind RequireReviewer.
func (h *PaymentHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	payment, err := h.paymentUC.ReviewPayment(r.Context(), usecase.ReviewPaymentInput{
		PaymentID: chi.URLParam(r, "id"),
		Approve:   *req.Approve,
		Reason:    req.Reason,
	})
	if err != nil {
		if payment != nil && payment.Status == domain.PaymentStatusFailed {
			writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
			return
		}
		writeError(w, mapDomainError(err), "failed to review payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}
