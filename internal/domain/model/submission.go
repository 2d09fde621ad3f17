// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/okian/instrank/internal/domain/scoring"
)

// ErrMissingInstitution is returned for a submission without an institution id.
var ErrMissingInstitution = errors.New("institution_id is required")

// Submission is one institution's raw metric record sent for scoring.
type Submission struct {
	SubmissionID  string          `json:"submission_id" yaml:"submission_id"` // unique id for idempotency
	InstitutionID string          `json:"institution_id" yaml:"institution_id"`
	SubmittedBy   string          `json:"submitted_by,omitempty" yaml:"submitted_by,omitempty"`
	SubmittedAt   time.Time       `json:"submitted_at" yaml:"submitted_at"`
	Metrics       scoring.Metrics `json:"metrics" yaml:"metrics"`
}

// Validate checks the fields every submission must carry.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.InstitutionID) == "" {
		return ErrMissingInstitution
	}
	return nil
}

// Input converts the submission into a scoring input.
func (s Submission) Input() scoring.Input {
	return scoring.Input{InstitutionID: s.InstitutionID, Metrics: s.Metrics}
}

// InstitutionScore is the ranked, stored outcome of a submission.
type InstitutionScore struct {
	InstitutionID string              `json:"institution_id"`
	SubmissionID  string              `json:"submission_id"`
	SubmittedBy   string              `json:"submitted_by,omitempty"`
	SubmittedAt   time.Time           `json:"submitted_at"`
	Result        scoring.FinalResult `json:"result"`
	Overridden    bool                `json:"overridden"`
}

// FinalScore is the ranking key.
func (s InstitutionScore) FinalScore() float64 {
	return s.Result.FinalScore
}

// NewerThan reports whether s was submitted strictly after other.
func (s InstitutionScore) NewerThan(other InstitutionScore) bool {
	return s.SubmittedAt.After(other.SubmittedAt)
}

// NewInstitutionScore binds a scoring result to the submission it came from.
func NewInstitutionScore(sub Submission, res scoring.FinalResult) InstitutionScore {
	return InstitutionScore{
		InstitutionID: sub.InstitutionID,
		SubmissionID:  sub.SubmissionID,
		SubmittedBy:   sub.SubmittedBy,
		SubmittedAt:   sub.SubmittedAt,
		Result:        res,
	}
}
