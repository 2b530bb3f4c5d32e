package gateway

import (
	"github.com/okian/housecup/internal/domain/points"
	"github.com/okian/housecup/pkg/logger"
)

// Option applies a configuration option to the Gateway.
type Option func(*Gateway)

// WithPolicy sets the points policy.
func WithPolicy(p *points.Policy) Option {
	return func(g *Gateway) {
		if p != nil {
			g.policy = p
		}
	}
}

// WithLogger sets the logger used by the gateway.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}
