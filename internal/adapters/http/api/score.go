package api

import (
	"context"
	"net/http"

	"github.com/okian/instrank/internal/domain/scoring"
	"github.com/okian/instrank/pkg/logger"
)

// ScoreDependencies computes results without ranking them.
type ScoreDependencies interface {
	Score(ctx context.Context, m scoring.Metrics) (scoring.FinalResult, error)
}

// ScoreHandler handles POST /score.
type ScoreHandler struct {
	deps   ScoreDependencies
	logger logger.Logger
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies, l logger.Logger) *ScoreHandler {
	return &ScoreHandler{deps: deps, logger: l}
}

// HandleScore scores the posted metric record and returns the full breakdown.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var m scoring.Metrics
	if err := decodeJSON(w, r, op, &m); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.deps.Score(r.Context(), m)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
