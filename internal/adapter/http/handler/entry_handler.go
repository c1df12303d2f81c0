package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmarks/payflow/internal/adapter/http/dto"
	"github.com/nmarks/payflow/internal/adapter/http/middleware"
	"github.com/nmarks/payflow/internal/domain"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	ListEntriesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	ListEntriesByReference(ctx context.Context, referenceID string) ([]*domain.Entry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	ledgerUC  EntryService
	accountUC AccountService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledgerUC EntryService, accountUC AccountService) *EntryHandler {
	return &EntryHandler{ledgerUC: ledgerUC, accountUC: accountUC}
}

// ListByAccount lists entries for an account, newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	accountID := chi.URLParam(r, "id")

	account, err := h.accountUC.GetAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}
	if !account.OwnedBy(user.ID) && !user.Role.CanReview() {
		writeError(w, http.StatusForbidden, "access denied", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.ledgerUC.ListEntriesByAccount(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// ListByReference lists the legs sharing a reference id.
func (h *EntryHandler) ListByReference(w http.ResponseWriter, r *http.Request) {
	referenceID := chi.URLParam(r, "id")

	entries, err := h.ledgerUC.ListEntriesByReference(r.Context(), referenceID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "reference not found", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
