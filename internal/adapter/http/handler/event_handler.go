package handler

import (
	"context"
	"net/http"

	"github.com/nmarks/payflow/internal/adapter/http/dto"
	"github.com/nmarks/payflow/internal/domain"
)

// EventService defines the behavior needed by EventHandler.
type EventService interface {
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
}

// EventHandler exposes the per-aggregate event history. Routed behind
// RequireReviewer: event payloads cross account ownership boundaries.
type EventHandler struct {
	events EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

// ListByAggregate lists an aggregate's events in version order.
func (h *EventHandler) ListByAggregate(w http.ResponseWriter, r *http.Request) {
	aggregateType := r.URL.Query().Get("aggregate_type")
	aggregateID := r.URL.Query().Get("aggregate_id")
	if aggregateType == "" || aggregateID == "" {
		writeError(w, http.StatusBadRequest, "missing aggregate_type or aggregate_id", "")
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	events, err := h.events.GetByAggregate(r.Context(), aggregateType, aggregateID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list events", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EventsFromDomain(events))
}
