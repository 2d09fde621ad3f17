package scoring

import (
	"fmt"
	"math"
)

// weightTolerance bounds floating-point drift when checking the weight sum.
const weightTolerance = 1e-9

// Weights is the fixed category weight vector of the final score.
type Weights struct {
	TLR float64
	RP  float64
	GO  float64
	OI  float64
	PR  float64
}

// DefaultWeights returns the 30/30/20/10/10 distribution.
func DefaultWeights() Weights {
	return Weights{TLR: 0.30, RP: 0.30, GO: 0.20, OI: 0.10, PR: 0.10}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.TLR + w.RP + w.GO + w.OI + w.PR
}

// Validate checks that the weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.TLR, w.RP, w.GO, w.OI, w.PR} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight %f", ErrInvalidWeights, v)
		}
	}
	if math.Abs(w.Sum()-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// CategoryTotals carries the five category totals into the aggregator.
type CategoryTotals struct {
	TLR float64 `json:"tlr"`
	RP  float64 `json:"rp"`
	GO  float64 `json:"go"`
	OI  float64 `json:"oi"`
	PR  float64 `json:"pr"`
}

// Aggregate returns the weighted final score rounded to two decimals. It
// trusts every total to already lie in [0, 100] and never re-normalizes.
func Aggregate(t CategoryTotals) float64 {
	return roundScore(aggregate(t))
}

// weights is validated once at package load.
var weights = mustWeights(DefaultWeights())

func mustWeights(w Weights) Weights {
	if err := w.Validate(); err != nil {
		panic(err)
	}
	return w
}

func aggregate(t CategoryTotals) float64 {
	w := weights
	return w.TLR*t.TLR + w.RP*t.RP + w.GO*t.GO + w.OI*t.OI + w.PR*t.PR
}

// Compute runs the whole pipeline for one institution: category 1, the
// baseline, category 2 against that baseline, the single-score categories
// and the aggregate. Totals enter the aggregator at full precision; every
// returned value is rounded.
func Compute(m Metrics) FinalResult {
	tlr := scoreTLR(m.TLR)
	baseline := Baseline(m.TLR)
	rp := scoreRP(m.RP, baseline)
	goScore := scoreGO(m.GO)
	oi := scoreOI(m.OI)
	pr := scorePR(m.PR)

	final := aggregate(CategoryTotals{TLR: tlr.Total, RP: rp.Total, GO: goScore, OI: oi, PR: pr})

	return FinalResult{
		TLR:        tlr.rounded(),
		RP:         rp.rounded(),
		GO:         roundScore(goScore),
		OI:         roundScore(oi),
		PR:         roundScore(pr),
		Baseline:   roundRatio(baseline),
		FinalScore: roundScore(Clamp(final, 0, categoryMax)),
	}
}
