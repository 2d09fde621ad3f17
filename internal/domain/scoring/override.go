package scoring

import (
	"fmt"
	"maps"
	"slices"
)

// RecomputeTotal sums whichever sub-scores are present; missing ones count
// as zero. Names are summed in sorted order so the result is reproducible.
func RecomputeTotal(subs map[string]SubScore) float64 {
	var total float64
	for _, name := range slices.Sorted(maps.Keys(subs)) {
		total += subs[name].Value
	}
	return total
}

// Override returns a copy of c with the named sub-score replaced by value,
// clamped to the sub-score's maximum, and the total recomputed from the
// sub-scores present.
func (c CategoryResult) Override(name string, value float64) (CategoryResult, error) {
	cur, ok := c.SubScores[name]
	if !ok {
		return CategoryResult{}, fmt.Errorf("%w: %s/%s", ErrUnknownSubScore, c.Category, name)
	}

	out := CategoryResult{Category: c.Category, SubScores: make(map[string]SubScore, len(c.SubScores))}
	for k, v := range c.SubScores {
		out.SubScores[k] = v
	}

	terms := make(map[string]float64, len(cur.Breakdown.Terms)+1)
	for k, v := range cur.Breakdown.Terms {
		terms[k] = v
	}
	terms["computed_value"] = cur.Value
	cur.Value = roundScore(Clamp(value, 0, cur.Max))
	cur.Breakdown = Breakdown{Terms: terms, Valid: true, Reason: "overridden"}
	out.SubScores[name] = cur
	out.Total = roundScore(RecomputeTotal(out.SubScores))
	return out, nil
}

// OverrideSubScore replaces one sub-score of a detailed category and
// re-aggregates the final score.
func (r FinalResult) OverrideSubScore(c Category, name string, value float64) (FinalResult, error) {
	switch c {
	case CategoryTLR:
		tlr, err := r.TLR.Override(name, value)
		if err != nil {
			return FinalResult{}, err
		}
		r.TLR = tlr
	case CategoryRP:
		rp, err := r.RP.Override(name, value)
		if err != nil {
			return FinalResult{}, err
		}
		r.RP = rp
	default:
		return FinalResult{}, fmt.Errorf("%w: %q has no sub-scores", ErrUnknownCategory, c)
	}
	return r.Reaggregate(), nil
}

// OverrideTotal replaces the score of a single-score category, clamped to
// [0, 100], and re-aggregates the final score.
func (r FinalResult) OverrideTotal(c Category, value float64) (FinalResult, error) {
	v := roundScore(Clamp(value, 0, categoryMax))
	switch c {
	case CategoryGO:
		r.GO = v
	case CategoryOI:
		r.OI = v
	case CategoryPR:
		r.PR = v
	default:
		return FinalResult{}, fmt.Errorf("%w: %q cannot be overridden as a total", ErrUnknownCategory, c)
	}
	return r.Reaggregate(), nil
}

// Reaggregate recomputes both detailed totals from their sub-scores and the
// final score from the category totals.
func (r FinalResult) Reaggregate() FinalResult {
	r.TLR.Total = roundScore(RecomputeTotal(r.TLR.SubScores))
	r.RP.Total = roundScore(RecomputeTotal(r.RP.SubScores))
	r.FinalScore = roundScore(Clamp(aggregate(r.Totals()), 0, categoryMax))
	return r
}
