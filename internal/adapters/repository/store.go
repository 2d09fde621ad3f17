// Package repository holds the in-memory ranking of scored institutions.
package repository

import (
	"context"

	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/types"
)

// Store provides read/write access to the ranking state.
type Store interface {
	// Upsert stores the latest score of an institution and re-ranks it.
	// A score submitted before the stored one is ignored and false returned.
	Upsert(ctx context.Context, s model.InstitutionScore) (bool, error)

	// Get returns the stored score of an institution.
	// Returns ErrNotFound if the institution is unknown.
	Get(ctx context.Context, institutionID string) (model.InstitutionScore, error)

	// Rank returns the leaderboard entry of an institution. Equal final
	// scores share a rank and the following rank is skipped.
	Rank(ctx context.Context, institutionID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by final score desc, then
	// institution id asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of ranked institutions.
	Count(ctx context.Context) int

	Close() error
}
