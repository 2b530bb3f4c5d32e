package cache

import (
	"context"
	"time"

	"github.com/okian/housecup/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithLogger sets the logger used by the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFailureReporter sets the function told when a synced view turns stale.
// It is called synchronously from Fail, so a recovery that follows at once
// cannot hide the outage.
func WithFailureReporter(report func(ctx context.Context, err error)) Option {
	return func(c *Cache) {
		if report != nil {
			c.report = report
		}
	}
}
