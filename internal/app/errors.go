package service

import (
	"errors"

	"github.com/okian/instrank/internal/adapters/repository"
)

// Sentinel kinds returned by the service. Callers match them with errors.Is.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrBackpressure      = errors.New("submission queue full")
	ErrInvalidOverride   = errors.New("invalid override")
	ErrConflict          = errors.New("score changed concurrently")
	ErrNotFound          = repository.ErrNotFound
)
