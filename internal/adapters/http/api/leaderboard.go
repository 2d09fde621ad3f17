package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/instrank/pkg/logger"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
	logger   logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int, l logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
		logger:   l,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests. A missing
// limit returns the maximum page.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, r, h.logger, WrapKind(op, ErrBadRequest, fmt.Errorf("invalid limit %q", limitStr)))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, r, h.logger, WrapKind(op, ErrLimitExceeded, fmt.Errorf("limit %d above maximum %d", n, h.maxLimit)))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
