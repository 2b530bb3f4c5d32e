package repository

import (
	"time"

	"github.com/okian/housecup/pkg/logger"
)

// Default store configuration constants.
const (
	defaultPollInterval = time.Second
	defaultKeyPrefix    = "housecup:"
)

type settings struct {
	logger       logger.Logger
	pollInterval time.Duration
	keyPrefix    string
}

func newSettings(name string, opts []Option) settings {
	s := settings{
		logger:       logger.Nop(),
		pollInterval: defaultPollInterval,
		keyPrefix:    defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.logger = s.logger.Named(name)
	return s
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithLogger sets the logger used by the store.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPollInterval sets how often SQLite subscribers check for changes made
// by other processes.
func WithPollInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithKeyPrefix namespaces every Redis key and channel used by the store.
func WithKeyPrefix(prefix string) Option {
	return func(s *settings) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}
