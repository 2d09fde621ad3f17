package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithPriority replaces the node priority function. Tests use it to force
// degenerate shapes.
func WithPriority(fn func(institutionID string) uint64) Option {
	return func(s *TreapStore) {
		if fn != nil {
			s.priority = fn
		}
	}
}
