// Package service provides the scoring service behind the HTTP API: it
// scores records on demand, accepts submissions for asynchronous ranking
// and applies reviewer overrides.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/instrank/internal/adapters/mq/queue"
	"github.com/okian/instrank/internal/adapters/mq/worker"
	"github.com/okian/instrank/internal/adapters/repository"
	"github.com/okian/instrank/internal/domain/dedupe"
	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/scoring"
	"github.com/okian/instrank/internal/domain/types"
	"github.com/okian/instrank/pkg/logger"
	"github.com/okian/instrank/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 100_000
)

// Service implements the API dependencies of the ranking system.
type Service struct {
	mu sync.RWMutex

	ranking repository.Store
	deduper dedupe.Deduper
	queue   queue.Queue
	scorer  scoring.Scorer
	pool    *worker.Pool
	cancel  context.CancelFunc

	workerCount int
	queueSize   int
	dedupeSize  int

	started    bool
	accepted   atomic.Int64
	duplicates atomic.Int64
	rejected   atomic.Int64
	overrides  atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Components are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		scorer:      scoring.NewEngine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the ranking store, dedupe set and queue, and starts the
// worker pool. Workers outlive ctx and run until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.ranking = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.queue = q

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, q, s.scorer, s.ranking)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop drains queued submissions until ctx expires, then stops the workers
// and closes the ranking store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping scoring service", logger.Int("queued", s.queue.Len(ctx)))

	err := s.pool.Shutdown(ctx)
	s.cancel()
	if cerr := s.ranking.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	s.started = false

	if err != nil {
		s.logger.Warn(ctx, "scoring service stopped with errors", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "scoring service stopped")
	return nil
}

// Score computes a result synchronously without ranking it.
func (s *Service) Score(ctx context.Context, m scoring.Metrics) (scoring.FinalResult, error) {
	start := time.Now()
	res, err := s.scorer.Score(ctx, scoring.Input{Metrics: m})
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		return scoring.FinalResult{}, err
	}
	metrics.RecordInstitutionScored(res.Final.FinalScore)
	return res.Final, nil
}

// Submit accepts a submission for asynchronous scoring and ranking. A
// missing submission id or time is filled in. Resubmitting a known
// submission id is acknowledged as a duplicate without being scored again.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (types.Ack, error) {
	const op = "service.submit"

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Ack{}, fmt.Errorf("%s: %w", op, ErrNotStarted)
	}

	if err := sub.Validate(); err != nil {
		return types.Ack{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidSubmission, err)
	}
	sub.InstitutionID = strings.TrimSpace(sub.InstitutionID)
	sub.SubmissionID = strings.TrimSpace(sub.SubmissionID)
	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, sub.SubmissionID) {
		s.duplicates.Add(1)
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", sub.SubmissionID))
		return types.Ack{SubmissionID: sub.SubmissionID, Status: types.AckDuplicate, Duplicate: true}, nil
	}

	if !s.queue.Enqueue(ctx, sub) {
		s.deduper.Unrecord(ctx, sub.SubmissionID)
		s.rejected.Add(1)
		metrics.RecordSubmissionRejected()
		return types.Ack{}, fmt.Errorf("%s: %w", op, ErrBackpressure)
	}

	s.accepted.Add(1)
	metrics.RecordSubmissionAccepted()
	return types.Ack{SubmissionID: sub.SubmissionID, Status: types.AckAccepted}, nil
}

// TopN returns the top n leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, n)
}

// Rank returns the leaderboard entry of an institution.
func (s *Service) Rank(ctx context.Context, institutionID string) (types.Entry, error) {
	store, err := s.store()
	if err != nil {
		return types.Entry{}, err
	}
	return store.Rank(ctx, institutionID)
}

// Result returns the stored score and breakdown of an institution.
func (s *Service) Result(ctx context.Context, institutionID string) (model.InstitutionScore, error) {
	store, err := s.store()
	if err != nil {
		return model.InstitutionScore{}, err
	}
	return store.Get(ctx, institutionID)
}

// OverrideRequest replaces one computed value of a stored result. SubScore
// names a sub-score of a detailed category; when empty the whole category
// total is replaced, which only single-score categories allow.
type OverrideRequest struct {
	Category scoring.Category `json:"category"`
	SubScore string           `json:"sub_score,omitempty"`
	Value    float64          `json:"value"`
	Reviewer string           `json:"reviewer,omitempty"`
}

// Override applies a reviewer override to the stored result, recomputes
// the affected totals and re-ranks the institution.
func (s *Service) Override(ctx context.Context, institutionID string, req OverrideRequest) (model.InstitutionScore, error) {
	const op = "service.override"

	store, err := s.store()
	if err != nil {
		return model.InstitutionScore{}, err
	}
	cur, err := store.Get(ctx, institutionID)
	if err != nil {
		return model.InstitutionScore{}, fmt.Errorf("%s: %w", op, err)
	}

	var res scoring.FinalResult
	if req.SubScore != "" {
		res, err = cur.Result.OverrideSubScore(req.Category, req.SubScore, req.Value)
	} else {
		res, err = cur.Result.OverrideTotal(req.Category, req.Value)
	}
	if err != nil {
		return model.InstitutionScore{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidOverride, err)
	}

	next := cur
	next.Result = res
	next.Overridden = true
	applied, err := store.Upsert(ctx, next)
	if err != nil {
		return model.InstitutionScore{}, fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		return model.InstitutionScore{}, fmt.Errorf("%s: %w", op, ErrConflict)
	}

	s.overrides.Add(1)
	metrics.RecordOverride(string(req.Category))
	s.logger.Info(ctx, "score overridden",
		logger.String("institution_id", institutionID),
		logger.String("category", string(req.Category)),
		logger.String("sub_score", req.SubScore),
		logger.Float64("value", req.Value),
		logger.String("reviewer", req.Reviewer),
		logger.Float64("final_score", res.FinalScore),
	)
	return next, nil
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started       bool  `json:"started"`
	WorkerCount   int   `json:"worker_count"`
	QueueCapacity int   `json:"queue_capacity"`
	QueueLength   int   `json:"queue_length"`
	DedupeEntries int64 `json:"dedupe_entries"`
	Institutions  int   `json:"institutions"`
	Accepted      int64 `json:"accepted"`
	Duplicates    int64 `json:"duplicates"`
	Rejected      int64 `json:"rejected"`
	Processed     int64 `json:"processed"`
	Stale         int64 `json:"stale"`
	Failed        int64 `json:"failed"`
	Overrides     int64 `json:"overrides"`
}

// Stats returns service statistics.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:       s.started,
		WorkerCount:   s.workerCount,
		QueueCapacity: s.queueSize,
		Accepted:      s.accepted.Load(),
		Duplicates:    s.duplicates.Load(),
		Rejected:      s.rejected.Load(),
		Overrides:     s.overrides.Load(),
	}
	if s.pool != nil {
		ps := s.pool.Stats()
		st.Processed = ps.Processed.Load()
		st.Stale = ps.Stale.Load()
		st.Failed = ps.Failed.Load()
	}
	if s.started {
		ctx := context.Background()
		st.QueueLength = s.queue.Len(ctx)
		st.DedupeEntries = s.deduper.Size()
		st.Institutions = s.ranking.Count(ctx)
	}
	return st
}

// GetStats returns Stats as a generic map for the stats endpoint.
func (s *Service) GetStats() map[string]any {
	st := s.Stats()
	return map[string]any{
		"started":        st.Started,
		"worker_count":   st.WorkerCount,
		"queue_capacity": st.QueueCapacity,
		"queue_length":   st.QueueLength,
		"dedupe_entries": st.DedupeEntries,
		"institutions":   st.Institutions,
		"accepted":       st.Accepted,
		"duplicates":     st.Duplicates,
		"rejected":       st.Rejected,
		"processed":      st.Processed,
		"stale":          st.Stale,
		"failed":         st.Failed,
		"overrides":      st.Overrides,
	}
}

func (s *Service) store() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ranking == nil {
		return nil, ErrNotStarted
	}
	return s.ranking, nil
}
