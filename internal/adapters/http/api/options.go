package api

import "github.com/okian/housecup/pkg/logger"

type options struct {
	logger logger.Logger
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
