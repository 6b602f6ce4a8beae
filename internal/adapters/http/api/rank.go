package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// RankDependencies reads one entity's stored signals and score history.
type RankDependencies interface {
	Signals(ctx context.Context, entityID string) (model.Signals, error)
	ScoreHistory(ctx context.Context, entityID string, n int) ([]model.ScoreSnapshot, error)
}

// RankHandler handles per-entity signal lookups.
type RankHandler struct {
	deps   RankDependencies
	logger logger.Logger
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies, log logger.Logger) *RankHandler {
	return &RankHandler{deps: deps, logger: log}
}

// HandleGetSignals handles GET /entities/{id}/signals. 404 no_data when the
// entity was never aggregated.
func (h *RankHandler) HandleGetSignals(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_signals"
	sig, err := h.deps.Signals(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

// HandleHistory handles GET /entities/{id}/history?n=N, newest first.
func (h *RankHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_history"
	n, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	history, err := h.deps.ScoreHistory(r.Context(), mux.Vars(r)["id"], n)
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	if history == nil {
		history = []model.ScoreSnapshot{}
	}
	writeJSON(w, http.StatusOK, history)
}
