package api

import (
	"context"
	"net/http"

	service "github.com/okian/instrank/internal/app"
	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/pkg/logger"
)

// InstitutionDependencies reads and overrides stored results.
type InstitutionDependencies interface {
	Result(ctx context.Context, institutionID string) (model.InstitutionScore, error)
	Override(ctx context.Context, institutionID string, req service.OverrideRequest) (model.InstitutionScore, error)
}

// InstitutionHandler handles per-institution requests.
type InstitutionHandler struct {
	deps   InstitutionDependencies
	logger logger.Logger
}

// NewInstitutionHandler creates a new institution handler.
func NewInstitutionHandler(deps InstitutionDependencies, l logger.Logger) *InstitutionHandler {
	return &InstitutionHandler{deps: deps, logger: l}
}

// HandleGetInstitution handles GET /institutions/{institutionID}.
func (h *InstitutionHandler) HandleGetInstitution(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_institution"
	id, err := institutionParam(r, op)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.deps.Result(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePostOverride handles POST /institutions/{institutionID}/overrides.
func (h *InstitutionHandler) HandlePostOverride(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_override"
	id, err := institutionParam(r, op)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.OverrideRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.deps.Override(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
