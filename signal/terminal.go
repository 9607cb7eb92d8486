package signal

import (
	"github.com/reactorx/reactor/core"
	"github.com/reactorx/reactor/effect"
)

// Subscribe runs onValue once immediately and again every time b changes,
// returning the effect handle so the caller can Stop it.
func Subscribe[T any](rt *core.Runtime, b *Builder[T], onValue func(T)) *effect.Effect {
	cur := b.cur
	return effect.Run(rt, func(sc *core.SignalContext) {
		onValue(cur.Value(sc))
	})
}

// Fold accumulates every value of b into acc starting from seed, and
// returns a reader for the current accumulator plus the effect handle
// driving it.
func Fold[T, U any](rt *core.Runtime, b *Builder[T], seed U, f func(acc U, v T) U) (func() U, *effect.Effect) {
	cur := b.cur
	acc := seed
	eff := effect.Run(rt, func(sc *core.SignalContext) {
		acc = f(acc, cur.Value(sc))
	})
	return func() U { return acc }, eff
}

// Collect accumulates every value of b into a slice, returning a reader
// for a snapshot of it plus the effect handle driving it.
func Collect[T any](rt *core.Runtime, b *Builder[T]) (func() []T, *effect.Effect) {
	cur := b.cur
	var values []T
	eff := effect.Run(rt, func(sc *core.SignalContext) {
		values = append(values, cur.Value(sc))
	})
	return func() []T {
		out := make([]T, len(values))
		copy(out, values)
		return out
	}, eff
}

// Stream pushes every value of b onto a channel, dropping a value rather
// than blocking the runtime's single goroutine if the channel's buffer is
// full. Returns the read side of the channel plus the effect handle; the
// caller should Stop the effect (which does not close the channel, since
// a receiver may still be draining it) when done.
func Stream[T any](rt *core.Runtime, b *Builder[T], buffer int) (<-chan T, *effect.Effect) {
	cur := b.cur
	ch := make(chan T, buffer)
	eff := effect.Run(rt, func(sc *core.SignalContext) {
		v := cur.Value(sc)
		select {
		case ch <- v:
		default:
		}
	})
	return ch, eff
}
