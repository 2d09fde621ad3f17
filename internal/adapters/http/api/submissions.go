package api

import (
	"context"
	"net/http"

	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/types"
	"github.com/okian/instrank/pkg/logger"
)

// SubmissionDependencies accepts submissions for asynchronous ranking.
type SubmissionDependencies interface {
	Submit(ctx context.Context, sub model.Submission) (types.Ack, error)
}

// SubmissionsHandler handles submission requests.
type SubmissionsHandler struct {
	deps   SubmissionDependencies
	logger logger.Logger
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps SubmissionDependencies, l logger.Logger) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps, logger: l}
}

// HandlePostSubmission handles POST /submissions. New submissions are
// answered with 202, repeated submission ids with 200.
func (h *SubmissionsHandler) HandlePostSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_submission"
	var sub model.Submission
	if err := decodeJSON(w, r, op, &sub); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ack, err := h.deps.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	if ack.Duplicate {
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}
