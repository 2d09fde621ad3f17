// Package worker scores queued submissions and writes the results into the
// ranking store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/scoring"
	"github.com/okian/instrank/pkg/logger"
	"github.com/okian/instrank/pkg/metrics"
)

// Submission abstracts what workers read off the queue.
type Submission = model.Submission

// Upserter stores a scored institution. It returns false when the score
// was not applied because a newer submission is already stored.
type Upserter interface {
	Upsert(ctx context.Context, s model.InstitutionScore) (bool, error)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Worker processes submissions until its input closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current submission.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	scorer   scoring.Scorer
	upserter Upserter
	name     string
	stats    *Stats

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// Stats counts worker outcomes. It is shared by every worker of a pool.
type Stats struct {
	Processed atomic.Int64
	Stale     atomic.Int64
	Failed    atomic.Int64
	active    atomic.Int64
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, scorer scoring.Scorer, upserter Upserter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		upserter: upserter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.stats == nil {
		w.stats = &Stats{}
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	in := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case sub, ok := <-in:
			if !ok {
				return
			}
			if err := w.process(ctx, sub); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown stops the worker and waits for it to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// process scores one submission and upserts the result.
func (w *InMemoryWorker) process(ctx context.Context, sub Submission) error { //nolint:gocritic // hugeParam: channel semantics
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.stats.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.stats.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	scoreStart := time.Now()
	res, err := w.scorer.Score(ctx, sub.Input())
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000)
	if err != nil {
		w.stats.Failed.Add(1)
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		return fmt.Errorf("score submission %s: %w", sub.SubmissionID, err)
	}
	recordInvalid(res.Final)
	metrics.RecordInstitutionScored(res.Final.FinalScore)

	applied, err := w.upserter.Upsert(ctx, model.NewInstitutionScore(sub, res.Final))
	if err != nil {
		w.stats.Failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ranking_error")
		return fmt.Errorf("rank submission %s: %w", sub.SubmissionID, err)
	}

	w.stats.Processed.Add(1)
	if !applied {
		w.stats.Stale.Add(1)
		w.logger.Debug(ctx, "stale submission ignored",
			logger.String("submission_id", sub.SubmissionID),
			logger.String("institution_id", sub.InstitutionID),
		)
		return nil
	}
	w.logger.Debug(ctx, "submission scored",
		logger.String("submission_id", sub.SubmissionID),
		logger.String("institution_id", sub.InstitutionID),
		logger.Float64("final_score", res.Final.FinalScore),
	)
	return nil
}

func recordInvalid(r scoring.FinalResult) {
	for _, c := range []scoring.CategoryResult{r.TLR, r.RP} {
		for name, s := range c.SubScores {
			if !s.Breakdown.Valid {
				metrics.RecordInvalidSubScore(name)
			}
		}
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *Stats
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, q Queue, scorer scoring.Scorer, upserter Upserter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stats:   &Stats{},
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, scorer, upserter,
			WithName("worker-"+strconv.Itoa(i)),
			withStats(p.stats),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stats returns the shared outcome counters.
func (p *Pool) Stats() *Stats {
	return p.stats
}

// Shutdown closes the queue, lets the workers drain it and waits for them.
// Workers still busy when ctx expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			timedOut = true
			w.stop()
			p.logger.Warn(ctx, "worker stopped before draining", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
	return nil
}
