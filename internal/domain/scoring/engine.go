package scoring

import (
	"context"
	"fmt"
)

// Input is one institution's raw record to score.
type Input struct {
	InstitutionID string
	Metrics       Metrics
}

// Result contains the computed scores for an institution.
type Result struct {
	InstitutionID string
	Final         FinalResult
}

// Scorer computes scores from an input.
type Scorer interface {
	// Score computes a result, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// Engine implements Scorer on top of Compute. It holds no state and may be
// shared between goroutines.
type Engine struct{}

// NewEngine returns a scoring engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score computes the final result for the given input.
func (e *Engine) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	return Result{
		InstitutionID: in.InstitutionID,
		Final:         Compute(in.Metrics),
	}, nil
}
