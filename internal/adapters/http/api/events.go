package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/ingestion"
	"github.com/okian/radar/pkg/logger"
)

// EventDependencies defines the event log operations.
type EventDependencies interface {
	RecordManualEvent(ctx context.Context, m ingestion.ManualEvent) (model.Event, error)
	IngestAll(ctx context.Context, entityID string) (int, error)
	ListEvents(ctx context.Context, entityID string, n int) ([]model.Event, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps   EventDependencies
	logger logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, log logger.Logger) *EventsHandler {
	return &EventsHandler{deps: deps, logger: log}
}

// HandlePostEvent handles POST /events with a manual event body.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	var req ingestion.ManualEvent
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	ev, err := h.deps.RecordManualEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

type ingestResponse struct {
	EntityID string `json:"entity_id"`
	Ingested int    `json:"ingested"`
}

// HandleIngest handles POST /entities/{id}/ingest. Feeds that fail are
// logged by the ingestor and counted as zero, so a partial count is still 200.
func (h *EventsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest"
	id := mux.Vars(r)["id"]
	n, err := h.deps.IngestAll(r.Context(), id)
	if err != nil && n == 0 {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	if err != nil {
		h.logger.Warn(r.Context(), "partial ingestion", logger.EntityID(id), logger.Error(err))
	}
	writeJSON(w, http.StatusOK, ingestResponse{EntityID: id, Ingested: n})
}

// HandleList handles GET /entities/{id}/events?n=N.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"
	n, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	events, err := h.deps.ListEvents(r.Context(), mux.Vars(r)["id"], n)
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
