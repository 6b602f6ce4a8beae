package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// RecommendationDependencies reads and generates workspace recommendations.
type RecommendationDependencies interface {
	RecommendationsForWorkspace(ctx context.Context, workspaceID string, n int) ([]model.Recommendation, error)
	GenerateRecommendations(ctx context.Context, workspaceID string, n int) ([]model.Recommendation, error)
}

// RecommendationHandler handles recommendation requests.
type RecommendationHandler struct {
	deps   RecommendationDependencies
	logger logger.Logger
}

// NewRecommendationHandler creates a new recommendation handler.
func NewRecommendationHandler(deps RecommendationDependencies, log logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{deps: deps, logger: log}
}

// HandleList handles GET /workspaces/{ws}/recommendations?n=N.
func (h *RecommendationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.list_recommendations", http.StatusOK, h.deps.RecommendationsForWorkspace)
}

// HandleGenerate handles POST /workspaces/{ws}/recommendations/generate?n=N.
func (h *RecommendationHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.generate_recommendations", http.StatusCreated, h.deps.GenerateRecommendations)
}

func (h *RecommendationHandler) serve(w http.ResponseWriter, r *http.Request, op string, okStatus int,
	fn func(context.Context, string, int) ([]model.Recommendation, error),
) {
	n, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	recs, err := fn(r.Context(), mux.Vars(r)["ws"], n)
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, okStatus, recs)
}
