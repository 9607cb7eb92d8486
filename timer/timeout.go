// Package timer layers context.Context timeouts over the async signal
// combinators in package signal. No timeout/retry library appears
// anywhere in the example pack, so this is built on the standard
// library's context and time packages directly — see DESIGN.md for the
// justification.
package timer

import (
	"context"
	"time"

	"github.com/reactorx/reactor/core"
	"github.com/reactorx/reactor/signal"
)

// IntoTimeoutDuration is satisfied by anything WithTimeout/WithTimeoutAsync
// accept as a duration: a plain time.Duration, or a count of milliseconds
// as a plain integer, so callers don't have to spell out
// `250*time.Millisecond` for the common case.
type IntoTimeoutDuration interface {
	~int | ~int64
}

func toDuration[D IntoTimeoutDuration](d D) time.Duration {
	switch v := any(d).(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	default:
		return 0
	}
}

// WithTimeout runs fn on its own goroutine with a context that cancels
// after d, exposing its eventual result as a signal of core.Poll[T] the
// same way signal.FromFuture does. If fn doesn't observe ctx's
// cancellation and return promptly, the signal simply stays Pending past
// the deadline — WithTimeout bounds how long the context stays valid, not
// how long fn is allowed to run.
func WithTimeout[T any, D IntoTimeoutDuration](rt *core.Runtime, parent context.Context, d D, fn func(context.Context) T) (*signal.Builder[core.Poll[T]], context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, toDuration(d))
	b := signal.FromFuture(rt, ctx, func(ctx context.Context) T {
		defer cancel()
		return fn(ctx)
	})
	return b, cancel
}

// WithTimeoutAsync is WithTimeout for a streaming producer: produce runs
// on its own goroutine, reporting values through yield until ctx is
// cancelled by the timeout (or by the returned cancel func).
func WithTimeoutAsync[T any, D IntoTimeoutDuration](rt *core.Runtime, parent context.Context, d D, initial T, produce func(ctx context.Context, yield func(T))) (*signal.Builder[T], context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, toDuration(d))
	b := signal.FromStream(rt, ctx, initial, produce)
	return b, cancel
}
