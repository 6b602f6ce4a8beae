package api

import (
	"context"
	"net/http"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// LeaderboardDependencies serves ranked reads.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, by service.Ranking, n int) ([]model.Signals, error)
}

// LeaderboardHandler handles top-N requests.
type LeaderboardHandler struct {
	deps   LeaderboardDependencies
	logger logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, logger: log}
}

type topResponse struct {
	By      service.Ranking `json:"by"`
	Entries []model.Signals `json:"entries"`
}

// HandleTop handles GET /top?by=momentum|breakout|risk&n=N.
func (h *LeaderboardHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.top"
	by, err := service.ParseRanking(r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalid, err)
		return
	}
	n, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	entries, err := h.deps.TopN(r.Context(), by, n)
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, topResponse{By: by, Entries: entries})
}
