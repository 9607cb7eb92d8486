// Package signal provides the Builder combinator chain over any reactive
// value: Map, Dedup, Scan, FlatMap and friends, each producing a new
// Signal backed by a core.DependencyNode.
package signal

import "github.com/reactorx/reactor/core"

// as casts an erased value back to T, the same small helper the teacher's
// own top-level sig.go uses to unwrap its internal untyped node.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// reader is the non-generic view Signal erases any typed producer behind,
// mirroring the teacher's internal.Signal: a concrete node that reads out
// as `any`, cast back to T at the call site. identity exposes the
// original source's pointer, kept separate from the read closure since a
// func value is never comparable and so can't serve that role itself.
type reader interface {
	valueAny(sc *core.SignalContext) any
	identity() any
}

// identifiable is implemented by Signal itself so that Of, when wrapping
// an existing Signal as its src, can recover the ultimate underlying
// pointer instead of treating the wrapper Signal (which embeds a func and
// so is not itself comparable) as the identity.
type identifiable interface {
	identity() any
}

type boundReader[T any] struct {
	id any
	fn func(sc *core.SignalContext) T
}

func (r boundReader[T]) valueAny(sc *core.SignalContext) any { return r.fn(sc) }
func (r boundReader[T]) identity() any                       { return r.id }

// Signal is the tagged handle every combinator produces and consumes: a
// type-erased reference to whatever actually backs the value — a
// state.State, a core.DependencyNode, or another Signal's own node —
// wrapped back to T on read. This is the Go realization of the Rust
// original's enum-of-storage-strategies Signal type, using the teacher's
// own "thin generic wrapper over an untyped internal node" idiom instead
// of a closed enum, since Go has no sealed sum types.
type Signal[T any] struct {
	inner reader
}

// Of wraps any concrete reactive producer (a *state.State[T], a
// *core.DependencyNode[T], or another Signal[T]) as a type-erased Signal.
func Of[T any](src interface{ Value(sc *core.SignalContext) T }) Signal[T] {
	var id any = src
	if s, ok := src.(identifiable); ok {
		id = s.identity()
	}
	return Signal[T]{inner: boundReader[T]{id: id, fn: src.Value}}
}

// Value reads the signal's current value, tracking the dependency if sc
// is tracking.
func (s Signal[T]) Value(sc *core.SignalContext) T {
	return as[T](s.inner.valueAny(sc))
}

func (s Signal[T]) identity() any { return s.inner.identity() }

// PtrEq reports whether s and other are backed by the same underlying
// node, by pointer identity rather than structural or value equality —
// two independently built signals that happen to compute equal values are
// not PtrEq. Mirrors the original's Signal::ptr_eq; false negatives are
// permitted (two signals may be PtrEq-distinct yet always agree in value).
func (s Signal[T]) PtrEq(other Signal[T]) bool {
	return s.inner.identity() == other.inner.identity()
}

// Builder wraps a Signal together with the runtime it belongs to, so each
// combinator can construct its result node against the right runtime
// without the caller threading it through by hand. Go generics can't let
// a method change its own receiver's type parameter, so the chain is
// expressed as free functions taking and returning a *Builder, the same
// shape core.StateRefBuilder uses for the same reason.
type Builder[T any] struct {
	rt  *core.Runtime
	cur Signal[T]
}

// From starts a builder chain over an existing signal.
func From[T any](rt *core.Runtime, sig Signal[T]) *Builder[T] {
	return &Builder[T]{rt: rt, cur: sig}
}

// New starts a builder chain directly from any concrete producer.
func New[T any](rt *core.Runtime, src interface{ Value(sc *core.SignalContext) T }) *Builder[T] {
	return From(rt, Of[T](src))
}

// Signal returns the erased signal this builder currently wraps.
func (b *Builder[T]) Signal() Signal[T] {
	return b.cur
}

// Runtime returns the runtime this builder is chained against.
func (b *Builder[T]) Runtime() *core.Runtime {
	return b.rt
}

// Value reads the builder's current signal directly, without extending
// the chain. Equivalent to b.Signal().Value(sc).
func (b *Builder[T]) Value(sc *core.SignalContext) T {
	return b.cur.Value(sc)
}
