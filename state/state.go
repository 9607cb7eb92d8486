// Package state implements the owned mutable cell the rest of the engine
// is built on: a value plus a single-slot sink table that schedules a
// Dirty notification on every write a sink might care about.
package state

import (
	"github.com/reactorx/reactor/core"
	"github.com/reactorx/reactor/signal"
)

// Option configures a State at construction time.
type Option[T any] func(*config[T])

type config[T any] struct {
	equal core.EqualFunc[T]
}

// WithEqual supplies the equality policy BorrowMutDedup/SetDedup use to
// decide whether a write actually changed the value. Required whenever T
// isn't naturally comparable with ==.
func WithEqual[T any](eq core.EqualFunc[T]) Option[T] {
	return func(c *config[T]) { c.equal = eq }
}

// State owns a mutable T and the single-slot sink table that notifies
// whenever it changes.
type State[T any] struct {
	rt    *core.Runtime
	value T
	equal core.EqualFunc[T]
	sinks core.SinkBindings
}

// New constructs a State holding initial.
func New[T any](rt *core.Runtime, initial T, opts ...Option[T]) *State[T] {
	var cfg config[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	return &State[T]{rt: rt, value: initial, equal: cfg.equal}
}

// Bind implements core.BindSource.
func (s *State[T]) Bind(sink core.WeakSink, slot core.Slot) core.BindKey {
	return s.sinks.Bind(sink, slot)
}

// Rebind implements core.BindSource.
func (s *State[T]) Rebind(key core.BindKey, sink core.WeakSink, slot core.Slot) {
	s.sinks.Rebind(key, sink, slot)
}

// Unbind implements core.BindSource.
func (s *State[T]) Unbind(key core.BindKey) {
	s.sinks.Unbind(key)
}

// Check implements core.BindSource. A State never carries verification
// ambiguity — every write it makes notifies at LevelDirty immediately,
// so a sink never needs to ask "did you actually change" after the fact;
// Check always reports clean.
func (s *State[T]) Check(slot core.Slot) bool {
	return false
}

// Borrow registers a read of this cell against sc and returns an owned
// StateRef holding a copy of its current value.
func (s *State[T]) Borrow(sc *core.SignalContext) core.StateRef[T] {
	sc.Track(s, 0)
	return core.NewStateRef(s.value)
}

// Get is Borrow().Get(), the common case of wanting the value itself.
func (s *State[T]) Get(sc *core.SignalContext) T {
	return s.Borrow(sc).Get()
}

// Value is Get, named to satisfy the signal.Signal producer shape so a
// *State can be wrapped directly with signal.Of/signal.New.
func (s *State[T]) Value(sc *core.SignalContext) T {
	return s.Get(sc)
}

// ToSignal erases this cell behind a signal.Signal handle, the common
// entry point into the Builder combinator chain.
func (s *State[T]) ToSignal() signal.Signal[T] {
	return signal.Of[T](s)
}

// Peek returns the current value without registering a dependency.
func (s *State[T]) Peek() T {
	return s.value
}

// StateRefMut is an exclusive mutable borrow of a State. Go has no Drop,
// so unlike the Rust original the notify-on-write isn't automatic on
// scope exit — call Release (or use Mutate, which does this with defer)
// once done.
type StateRefMut[T any] struct {
	state   *State[T]
	touched bool
}

// Value returns a pointer to the cell's value and marks the guard as
// touched, so Release schedules a notification.
func (g *StateRefMut[T]) Value() *T {
	g.touched = true
	return &g.state.value
}

// Release schedules a Dirty notification if Value was called at least
// once since the guard was created.
func (g *StateRefMut[T]) Release() {
	if g.touched {
		g.state.sinks.ResetEdges()
		g.state.sinks.Notify(g.state.rt, core.AnySlot, core.LevelDirty)
	}
}

// BorrowMut returns an exclusive mutable borrow. ac is accepted for
// parity with the spec's capability-based mutation API; writes that
// don't go through an ActionContext aren't otherwise restricted in Go.
func (s *State[T]) BorrowMut(ac *core.ActionContext) *StateRefMut[T] {
	return &StateRefMut[T]{state: s}
}

// Mutate runs fn against the cell's value under an exclusive borrow and
// schedules a notification afterward, the common case for BorrowMut.
func Mutate[T any](s *State[T], ac *core.ActionContext, fn func(*T)) {
	g := s.BorrowMut(ac)
	defer g.Release()
	fn(g.Value())
}

// StateRefMutDedup is like StateRefMut but snapshots the value on
// creation and only notifies on Release if it actually changed.
type StateRefMutDedup[T any] struct {
	state   *State[T]
	before  T
	touched bool
}

func (g *StateRefMutDedup[T]) Value() *T {
	g.touched = true
	return &g.state.value
}

func (g *StateRefMutDedup[T]) Release() {
	if !g.touched {
		return
	}
	if g.state.isEqual(g.before, g.state.value) {
		return
	}
	g.state.sinks.ResetEdges()
	g.state.sinks.Notify(g.state.rt, core.AnySlot, core.LevelDirty)
}

// BorrowMutDedup returns a mutable borrow that only notifies on Release
// if the value actually changed, by the state's configured equality
// (WithEqual), falling back to == on the two values boxed as any when none
// was configured (which panics on Release if T is not comparable).
func (s *State[T]) BorrowMutDedup(ac *core.ActionContext) *StateRefMutDedup[T] {
	return &StateRefMutDedup[T]{state: s, before: s.value}
}

func (s *State[T]) isEqual(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return any(a) == any(b)
}

// MutateDedup runs fn against the cell's value under an exclusive borrow
// and schedules a notification afterward only if the value changed.
func MutateDedup[T any](s *State[T], ac *core.ActionContext, fn func(*T)) {
	g := s.BorrowMutDedup(ac)
	defer g.Release()
	fn(g.Value())
}

// Set replaces the value unconditionally and notifies.
func (s *State[T]) Set(ac *core.ActionContext, v T) {
	Mutate(s, ac, func(p *T) { *p = v })
}

// SetDedup replaces the value and notifies only if it actually changed.
func (s *State[T]) SetDedup(ac *core.ActionContext, v T) {
	MutateDedup(s, ac, func(p *T) { *p = v })
}

// BorrowMutLoose and BorrowMutDedupLoose are the _loose variants from the
// spec: in the Rust original they avoid holding the ActionContext borrow
// for the guard's lifetime, so several cells can be mutated concurrently
// within one action, with notification scheduled rather than applied
// immediately. Go has no borrow checker enforcing exclusivity in the
// first place, so here they are equivalent to the non-loose variants;
// kept as distinct names for API parity with callers porting intuition
// from the spec.
func (s *State[T]) BorrowMutLoose(ac *core.ActionContext) *StateRefMut[T] {
	return s.BorrowMut(ac)
}

func (s *State[T]) BorrowMutDedupLoose(ac *core.ActionContext) *StateRefMutDedup[T] {
	return s.BorrowMutDedup(ac)
}
