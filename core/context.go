package core

// SignalContext is threaded explicitly through every reactive read. It
// carries the identity of the node currently computing (if any) plus the
// source list that read is rebuilding, and a small per-read-boundary
// arena used by StateRef to pin self-referential intermediates. There is
// no hidden goroutine-local stack: a read with a nil SignalContext (or one
// built by Untrack) simply does not register a dependency.
type SignalContext struct {
	rt       *Runtime
	sinkWeak WeakSink
	sources  *SourceBindings
	arena    *arena
	tracking bool
}

// Track registers a read of (source, slot) against the node this context
// belongs to, reusing the edge from the previous compute when possible.
// A no-op when the context isn't tracking (e.g. inside Untrack).
func (sc *SignalContext) Track(source BindSource, slot Slot) {
	if sc == nil || !sc.tracking || sc.sources == nil {
		return
	}
	sc.sources.Update(source, slot, sc.sinkWeak)
}

// Runtime returns the runtime this context is bound to.
func (sc *SignalContext) Runtime() *Runtime {
	if sc == nil {
		return nil
	}
	return sc.rt
}

// arenaOf returns the per-read-boundary arena used to pin StateRef
// intermediates. Created lazily.
func (sc *SignalContext) arenaOf() *arena {
	if sc.arena == nil {
		sc.arena = &arena{}
	}
	return sc.arena
}

// untracked returns a copy of sc with tracking disabled, used by Untrack.
func (sc *SignalContext) untracked() *SignalContext {
	if sc == nil {
		return nil
	}
	cp := *sc
	cp.tracking = false
	return &cp
}

// Untrack runs fn with a copy of sc that does not register dependencies,
// so reads inside fn are invisible to whatever node is currently
// computing.
func Untrack[T any](sc *SignalContext, fn func(*SignalContext) T) T {
	return fn(sc.untracked())
}

// ActionContext is the capability an Action holds: permission to mutate
// state. Mutating methods on State require one.
type ActionContext struct {
	rt *Runtime
}

func (ac *ActionContext) Runtime() *Runtime { return ac.rt }

// ReactionContext is the capability a Reaction holds: read-only access to
// the graph, with a cyclic-dependency check on every borrow.
type ReactionContext struct {
	sc *SignalContext
}

func (rc *ReactionContext) SignalContext() *SignalContext { return rc.sc }
func (rc *ReactionContext) Runtime() *Runtime              { return rc.sc.Runtime() }

// NotifyContext is passed to the notify-application pass; it exposes
// just enough of the runtime to schedule follow-on notifications.
type NotifyContext struct {
	rt *Runtime
}

func (nc *NotifyContext) Runtime() *Runtime { return nc.rt }
