package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/radar/internal/adapters/mq/queue"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// AggregationDependencies runs aggregations synchronously or via the queue.
type AggregationDependencies interface {
	TriggerAggregation(ctx context.Context, entityID string) (model.Signals, error)
	TriggerBatchAggregation(ctx context.Context, ids []string) ([]model.Signals, error)
	EnqueueAggregation(ctx context.Context, entityID string) (queue.Job, error)
}

// AggregationHandler handles aggregation requests.
type AggregationHandler struct {
	deps   AggregationDependencies
	logger logger.Logger
}

// NewAggregationHandler creates a new aggregation handler.
func NewAggregationHandler(deps AggregationDependencies, log logger.Logger) *AggregationHandler {
	return &AggregationHandler{deps: deps, logger: log}
}

// HandleAggregate handles POST /entities/{id}/aggregate.
func (h *AggregationHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "api.aggregate"
	sig, err := h.deps.TriggerAggregation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

type batchRequest struct {
	EntityIDs []string `json:"entity_ids"`
}

type batchResponse struct {
	Requested int             `json:"requested"`
	Succeeded int             `json:"succeeded"`
	Results   []model.Signals `json:"results"`
}

// HandleBatch handles POST /aggregate/batch.
func (h *AggregationHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.aggregate_batch"
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	results, err := h.deps.TriggerBatchAggregation(r.Context(), req.EntityIDs)
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Requested: len(req.EntityIDs), Succeeded: len(results), Results: results})
}

// HandleEnqueue handles POST /entities/{id}/enqueue.
func (h *AggregationHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	const op = "api.enqueue"
	job, err := h.deps.EnqueueAggregation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}
