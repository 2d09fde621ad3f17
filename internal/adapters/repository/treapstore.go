package repository

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/types"
	"github.com/okian/instrank/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: final score DESC, then institution id ASC. "less" means ranks
// earlier, so in-order traversal yields the leaderboard from best to worst.
// Node sizes make rank lookups O(log n).

// scoreScale converts final scores to fixed point so equal displayed scores
// compare equal.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := math.Round(x * scoreScale)
	if scaled >= math.MaxInt64 {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= math.MinInt64 {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(scaled)
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// hashPriority derives a stable pseudo-random priority from the id.
func hashPriority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countHigher returns the number of nodes with a strictly higher score.
func countHigher(n *node, score scoreFP) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	collectTopN(n.right, limit, out)
}

type record struct {
	score scoreFP
	value model.InstitutionScore
}

// TreapStore is the in-memory ranking store.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	byID     map[string]record
	priority func(string) uint64
	closed   bool
}

// NewTreapStore constructs an empty treap store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:     make(map[string]record),
		priority: hashPriority,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateInstitutionsRanked(0)
	return s
}

// Upsert implements Store.Upsert in O(log n) expected time.
func (s *TreapStore) Upsert(ctx context.Context, v model.InstitutionScore) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	ns := toFixedPoint(v.FinalScore())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if old, ok := s.byID[v.InstitutionID]; ok {
		if old.value.NewerThan(v) {
			s.mu.Unlock()
			metrics.RecordRepositoryStaleUpdate()
			return false, nil
		}
		s.root = deleteNode(s.root, v.InstitutionID, old.score)
	}
	s.byID[v.InstitutionID] = record{score: ns, value: v}
	s.root = insert(s.root, v.InstitutionID, ns, s.priority(v.InstitutionID))
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateInstitutionsRanked(count)
	return true, nil
}

// Get returns the stored score of an institution.
func (s *TreapStore) Get(_ context.Context, institutionID string) (model.InstitutionScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[institutionID]
	if !ok {
		return model.InstitutionScore{}, ErrNotFound
	}
	return rec.value, nil
}

// Rank returns the current rank and score of an institution in O(log n).
func (s *TreapStore) Rank(_ context.Context, institutionID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[institutionID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	return types.Entry{
		Rank:          1 + countHigher(s.root, rec.score),
		InstitutionID: institutionID,
		FinalScore:    rec.value.FinalScore(),
	}, nil
}

// TopN returns the top n entries with competition ranks.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)

	out := make([]types.Entry, len(nodes))
	for i, nd := range nodes {
		rank := i + 1
		if i > 0 && nd.score == nodes[i-1].score {
			rank = out[i-1].Rank
		}
		out[i] = types.Entry{
			Rank:          rank,
			InstitutionID: nd.id,
			FinalScore:    s.byID[nd.id].value.FinalScore(),
		}
	}
	return out, nil
}

// Count returns the number of ranked institutions.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close rejects further upserts. Reads keep working.
func (s *TreapStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
