package scoring

import "errors"

// Sentinel errors for this package.
var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownSubScore = errors.New("unknown sub-score")
	ErrInvalidWeights  = errors.New("invalid weights")
)
