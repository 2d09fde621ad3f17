package api

import (
	"time"

	"github.com/okian/instrank/pkg/logger"
)

const (
	defaultMaxLeaderboardLimit = 100
	defaultRequestTimeout      = 5 * time.Second
	maxBodyBytes               = 1 << 20
)

// Option configures a Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the limit accepted by GET /leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRequestTimeout bounds every request handled by the router.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
