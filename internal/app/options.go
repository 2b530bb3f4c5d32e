package service

import (
	"context"
	"time"

	"github.com/okian/housecup/internal/adapters/repository"
	"github.com/okian/housecup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore selects the store backend: memory, sqlite or redis.
func WithStore(kind string) Option {
	return func(s *Service) {
		if kind != "" {
			s.storeKind = kind
		}
	}
}

// WithSQLite sets the database file and the change polling interval.
func WithSQLite(path string, poll time.Duration) Option {
	return func(s *Service) {
		s.sqlitePath = path
		if poll > 0 {
			s.pollInterval = poll
		}
	}
}

// WithRedis sets the Redis connection and key prefix.
func WithRedis(addr, password string, db int, prefix string) Option {
	return func(s *Service) {
		s.redisAddr, s.redisPassword, s.redisDB = addr, password, db
		if prefix != "" {
			s.redisPrefix = prefix
		}
	}
}

// WithRepository uses an already opened store instead of opening one. The
// caller keeps ownership and closes it.
func WithRepository(store repository.Store) Option {
	return func(s *Service) {
		s.injected = store
	}
}

// WithIdempotencySize sets how many idempotency keys are remembered.
func WithIdempotencySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.idempotencySize = size
		}
	}
}

// WithPointScales sets the default points per position for each category.
func WithPointScales(individual, group []int) Option {
	return func(s *Service) {
		s.individualScale, s.groupScale = individual, group
	}
}

// WithSeedDemo loads the demo events into an empty store at start.
func WithSeedDemo(enabled bool) Option {
	return func(s *Service) {
		s.seedDemo = enabled
	}
}

// WithErrorReporter sets where store and subscription failures are sent.
func WithErrorReporter(report func(ctx context.Context, err error)) Option {
	return func(s *Service) {
		if report != nil {
			s.report = report
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
