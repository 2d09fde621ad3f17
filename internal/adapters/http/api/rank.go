package api

import (
	"context"
	"net/http"

	"github.com/okian/instrank/pkg/logger"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, institutionID string) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps   RankDependencies
	logger logger.Logger
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies, l logger.Logger) *RankHandler {
	return &RankHandler{deps: deps, logger: l}
}

// HandleGetRank handles GET /rank/{institutionID} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	id, err := institutionParam(r, op)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	entry, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
