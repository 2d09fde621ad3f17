package scoring

import "math"

// roundLimit is the magnitude past which float64 has no fractional digits left.
const roundLimit = 1e15

// Normalize is the saturating normalization min(1, value/reference).
// A non-positive reference or a non-finite quotient yields 0, and the
// result is floored at 0 so negative inputs never contribute negatively.
func Normalize(value, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	return Clamp(value/reference, 0, 1)
}

// Ratio divides num by den, returning 0 for a non-positive denominator.
func Ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// mean averages a fixed reporting window.
func mean(values [3]float64) float64 {
	return (values[0] + values[1] + values[2]) / float64(len(values))
}

// round is display rounding. Values too large to scale are returned as is
// and non-finite values, which JSON cannot carry, become 0.
func round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if math.Abs(v) >= roundLimit {
		return v
	}
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

func roundScore(v float64) float64 { return round(v, scoreDecimals) }
func roundRatio(v float64) float64 { return round(v, ratioDecimals) }
