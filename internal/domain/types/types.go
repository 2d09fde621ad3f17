// Package types contains common types used across the application.
package types

// Entry represents a leaderboard entry.
type Entry struct {
	Rank          int     `json:"rank"`
	InstitutionID string  `json:"institution_id"`
	FinalScore    float64 `json:"final_score"`
}
