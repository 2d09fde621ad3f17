// Package api exposes the scoring service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/instrank/internal/adapters/http/swagger"
	"github.com/okian/instrank/internal/domain/types"
	"github.com/okian/instrank/pkg/logger"
	"github.com/okian/instrank/pkg/metrics"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ScoreDependencies
	SubmissionDependencies
	LeaderboardDependencies
	RankDependencies
	InstitutionDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	maxLimit int
	timeout  time.Duration
	origins  []string
	logger   logger.Logger

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	submissionsHandler *SubmissionsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	institutionHandler *InstitutionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxLimit: defaultMaxLeaderboardLimit,
		timeout:  defaultRequestTimeout,
		origins:  []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.healthHandler = NewHealthHandler(metrics.GetRegistry())
	s.statsHandler = NewStatsHandler(deps)
	s.scoreHandler = NewScoreHandler(deps, s.logger)
	s.submissionsHandler = NewSubmissionsHandler(deps, s.logger)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit, s.logger)
	s.rankHandler = NewRankHandler(deps, s.logger)
	s.institutionHandler = NewInstitutionHandler(deps, s.logger)
	return s
}

// Routes builds the chi router serving every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.MetricsHandler())
	r.Get("/stats", s.statsHandler.HandleStats)
	swagger.Register(r)

	r.Post("/score", s.scoreHandler.HandleScore)
	r.Post("/submissions", s.submissionsHandler.HandlePostSubmission)
	r.Get("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	r.Get("/rank/{institutionID}", s.rankHandler.HandleGetRank)
	r.Route("/institutions/{institutionID}", func(ir chi.Router) {
		ir.Get("/", s.institutionHandler.HandleGetInstitution)
		ir.Post("/overrides", s.institutionHandler.HandlePostOverride)
	})
	return r
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v before touching the response so an unencodable value
// becomes a 500 instead of an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeError maps err to a status and writes the error body. Server-side
// failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// decodeJSON reads a single JSON document into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	if dec.More() {
		return WrapKind(op, ErrBadRequest, errors.New("unexpected data after JSON body"))
	}
	return nil
}

func institutionParam(r *http.Request, op string) (string, error) {
	id := chi.URLParam(r, "institutionID")
	if id == "" {
		return "", WrapKind(op, ErrBadRequest, errors.New("missing institution id"))
	}
	return id, nil
}
