package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// SceneDependencies reads and recomputes scene aggregates.
type SceneDependencies interface {
	Scene(ctx context.Context, sceneID string) (model.SceneSignals, error)
	RefreshScene(ctx context.Context, sceneID string) (model.SceneSignals, error)
}

// SceneHandler handles scene requests.
type SceneHandler struct {
	deps   SceneDependencies
	logger logger.Logger
}

// NewSceneHandler creates a new scene handler.
func NewSceneHandler(deps SceneDependencies, log logger.Logger) *SceneHandler {
	return &SceneHandler{deps: deps, logger: log}
}

// HandleGet handles GET /scenes/{id}.
func (h *SceneHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sc, err := h.deps.Scene(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, h.logger, "api.get_scene", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// HandleRefresh handles POST /scenes/{id}/refresh.
func (h *SceneHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	sc, err := h.deps.RefreshScene(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, h.logger, "api.refresh_scene", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}
