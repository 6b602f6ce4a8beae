package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// EntityDependencies is the entity registry.
type EntityDependencies interface {
	RegisterEntity(ctx context.Context, e model.Entity) (model.Entity, error)
	Entity(ctx context.Context, id string) (model.Entity, error)
	Entities(ctx context.Context, workspaceID string) ([]model.Entity, error)
}

// EntityHandler handles registry requests.
type EntityHandler struct {
	deps   EntityDependencies
	logger logger.Logger
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(deps EntityDependencies, log logger.Logger) *EntityHandler {
	return &EntityHandler{deps: deps, logger: log}
}

// HandleRegister handles POST /entities.
func (h *EntityHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.Entity
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	e, err := h.deps.RegisterEntity(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, "api.register_entity", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleGet handles GET /entities/{id}.
func (h *EntityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.Entity(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, h.logger, "api.get_entity", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleList handles GET /entities?workspace=ID.
func (h *EntityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Entities(r.Context(), r.URL.Query().Get("workspace"))
	if err != nil {
		writeServiceError(w, r, h.logger, "api.list_entities", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
