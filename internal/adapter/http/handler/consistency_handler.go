package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/nmarks/payflow/internal/adapter/http/dto"
	"github.com/nmarks/payflow/internal/usecase"
)

// ConsistencyService defines the behavior needed by ConsistencyHandler.
type ConsistencyService interface {
	CheckConsistency(ctx context.Context, limit int) ([]usecase.BalanceDrift, error)
}

// ConsistencyHandler exposes the ledger-wide invariant check. Routed behind
// RequireAdmin.
type ConsistencyHandler struct {
	consistencyUC ConsistencyService
}

// NewConsistencyHandler creates a new ConsistencyHandler.
func NewConsistencyHandler(consistencyUC ConsistencyService) *ConsistencyHandler {
	return &ConsistencyHandler{consistencyUC: consistencyUC}
}

// Check verifies that every account balance equals the signed sum of its
// entries.
func (h *ConsistencyHandler) Check(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 100)

	drift, err := h.consistencyUC.CheckConsistency(r.Context(), limit)
	if err != nil && !errors.Is(err, usecase.ErrInconsistentLedger) {
		writeError(w, http.StatusInternalServerError, "consistency check failed", err.Error())
		return
	}

	status := http.StatusOK
	if len(drift) > 0 {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConsistencyFromDrift(drift))
}
