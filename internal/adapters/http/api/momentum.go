package api

import (
	"net/http"

	"github.com/okian/radar/internal/domain/momentum"
)

// MomentumDependencies computes momentum snapshots.
type MomentumDependencies interface {
	Momentum(log momentum.ActivityLog, campaign momentum.Campaign) momentum.Report
}

// MomentumHandler handles momentum requests.
type MomentumHandler struct {
	deps MomentumDependencies
}

// NewMomentumHandler creates a new momentum handler.
func NewMomentumHandler(deps MomentumDependencies) *MomentumHandler {
	return &MomentumHandler{deps: deps}
}

type momentumRequest struct {
	Activity momentum.ActivityLog `json:"activity"`
	Campaign momentum.Campaign    `json:"campaign"`
}

// HandleMomentum handles POST /momentum. Nothing is stored; the report is
// computed from the posted activity.
func (h *MomentumHandler) HandleMomentum(w http.ResponseWriter, r *http.Request) {
	var req momentumRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Momentum(req.Activity, req.Campaign))
}
