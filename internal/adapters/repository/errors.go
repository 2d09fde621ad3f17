package repository

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNotFound     = errors.New("institution not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrClosed       = errors.New("store closed")
)
