package cmterm

import (
	"context"
	"fmt"
)

type logContextKey struct{}

// WithLog binds log as the default Log for everything downstream of ctx, so
// deeply nested collaborators (auth callbacks fired from inside library code)
// can reach a Log without it being threaded through every signature.
//
// Binding is idempotent for the same Log. Binding a different Log over an
// existing one is a wiring bug recovered locally: both Logs receive a warning
// and the original binding is retained.
func WithLog(ctx context.Context, log *Log) context.Context {
	if current, ok := ctx.Value(logContextKey{}).(*Log); ok {
		if current == log {
			return ctx
		}
		msg := fmt.Sprintf("attempt to bind log %q to a context already bound to %q", log.Name(), current.Name())
		current.Warn(msg)
		log.Warn(msg)
		return ctx
	}
	return context.WithValue(ctx, logContextKey{}, log)
}

// FromContext returns the Log bound by WithLog. Fetching before binding is a
// fatal wiring bug, not a recoverable condition.
func FromContext(ctx context.Context) *Log {
	log, ok := ctx.Value(logContextKey{}).(*Log)
	if !ok {
		panic("cmterm: FromContext called with no Log bound")
	}
	return log
}
