// Package observability reports unexpected failures to Sentry.
package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// InitSentry configures the global Sentry client. An empty dsn disables
// reporting. The returned func flushes buffered events and is always non-nil.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(flushTimeout) }, nil
}

// CaptureErr sends err to Sentry. Nil errors are ignored.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// Report is CaptureErr with a context and component tag, shaped to plug
// into callbacks that receive a context.
func Report(component string) func(context.Context, error) {
	return func(_ context.Context, err error) {
		if err == nil {
			return
		}
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("component", component)
			sentry.CaptureException(err)
		})
	}
}
