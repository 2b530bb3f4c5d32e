package relay

import (
	"github.com/okian/housecup/pkg/logger"
)

// Option applies a configuration option to the Relay.
type Option func(*Relay)

// WithName sets the relay name for identification and logging.
func WithName(name string) Option {
	return func(r *Relay) {
		if name != "" {
			r.name = name
		}
	}
}

// WithLogger sets a custom logger for the relay.
func WithLogger(l logger.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}
