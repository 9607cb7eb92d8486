package core

// NodeState is the lifecycle state of a DependencyNode.
type NodeState int

const (
	StateNone NodeState = iota
	StateComputing
	StateUpToDate
	StateMaybeDirty
	StateDirty
)

func (s NodeState) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateComputing:
		return "Computing"
	case StateUpToDate:
		return "UpToDate"
	case StateMaybeDirty:
		return "MaybeDirty"
	case StateDirty:
		return "Dirty"
	default:
		return "invalid"
	}
}

// ComputeFunc produces a node's next value given a SignalContext to track
// reads through, and reports whether the value actually changed relative
// to the previous one. The node owns the cached value, not the closure —
// a deliberate departure from the Rust original's `Compute::compute(&mut
// self, cc) -> bool` trait method, since Go generics have no clean way to
// let a trait object mutate its own erased state the way Rust does.
type ComputeFunc[T any] func(sc *SignalContext) (value T, changed bool)

// NodeOption configures a DependencyNode at construction time.
type NodeOption[T any] func(*nodeConfig[T])

type nodeConfig[T any] struct {
	hasty        bool
	hot          bool
	modifyAlways bool
	onDiscard    func(T)
}

// WithHasty marks the node for eager recomputation as soon as it is
// notified, instead of waiting for a downstream read to force it.
func WithHasty[T any]() NodeOption[T] {
	return func(c *nodeConfig[T]) { c.hasty = true }
}

// WithHot keeps the node computed even when it has no sinks.
func WithHot[T any]() NodeOption[T] {
	return func(c *nodeConfig[T]) { c.hot = true }
}

// WithModifyAlways disables the change-detection downgrade: the node is
// always treated as having changed, so every notification propagates as
// Dirty and every recompute reports a change (Check reports dirty whenever
// it has to recompute the node).
func WithModifyAlways[T any]() NodeOption[T] {
	return func(c *nodeConfig[T]) { c.modifyAlways = true }
}

// WithOnDiscard registers a hook run exactly once per transition to
// NodeState None, with the value the node held just before discard.
func WithOnDiscard[T any](fn func(T)) NodeOption[T] {
	return func(c *nodeConfig[T]) { c.onDiscard = fn }
}

// DependencyNode is the unit of cached reactive computation: a compute
// function, its cached result, the sources it read last time, and the
// sinks that depend on it.
type DependencyNode[T any] struct {
	rt      *Runtime
	compute ComputeFunc[T]

	value T
	state NodeState

	hasty        bool
	hot          bool
	modifyAlways bool
	onDiscard    func(T)

	sources SourceBindings
	sinks   SinkBindings

	scheduledDiscard bool
}

// NewDependencyNode constructs a node in state None; it is not computed
// until first read. This holds for a hot node too: Flush only recomputes
// hot nodes that are Dirty or MaybeDirty.
func NewDependencyNode[T any](rt *Runtime, compute ComputeFunc[T], opts ...NodeOption[T]) *DependencyNode[T] {
	var cfg nodeConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	n := &DependencyNode[T]{
		rt:           rt,
		compute:      compute,
		hasty:        cfg.hasty,
		hot:          cfg.hot,
		modifyAlways: cfg.modifyAlways,
		onDiscard:    cfg.onDiscard,
	}

	if n.hot {
		rt.registerHot(n)
	}

	return n
}

// Value forces the node up to date and, if sc is tracking, registers a
// read of it at slot 0.
func (n *DependencyNode[T]) Value(sc *SignalContext) T {
	n.ensureUpToDate()
	sc.Track(n, 0)
	return n.value
}

// Peek returns the node's last computed value without forcing a
// recompute or registering a dependency. Intended for debug/diagnostic
// use; ordinary reads should go through Value.
func (n *DependencyNode[T]) Peek() T {
	return n.value
}

func (n *DependencyNode[T]) State() NodeState { return n.state }

// ensureUpToDate resolves the node down to UpToDate and reports whether
// its value changed as a result of doing so.
func (n *DependencyNode[T]) ensureUpToDate() bool {
	switch n.state {
	case StateUpToDate:
		return false
	case StateNone, StateDirty:
		return n.recompute()
	case StateMaybeDirty:
		if n.sources.Check() {
			n.state = StateDirty
			return n.recompute()
		}
		n.state = StateUpToDate
		n.sinks.ResetEdges()
		return false
	case StateComputing:
		n.rt.logWarn("cyclic dependency detected")
		panic(newCyclicDependencyError("node read while its own compute is in progress"))
	default:
		return false
	}
}

func (n *DependencyNode[T]) recompute() bool {
	rt := n.rt

	n.state = StateComputing
	sc := &SignalContext{
		rt:       rt,
		sinkWeak: WeakenSink(n),
		sources:  &n.sources,
		tracking: true,
	}
	n.sources.Reset()
	value, changed := n.compute(sc)
	n.sources.Commit()

	// Notifications already queued for this node are reflected in the value
	// just computed; delivering them later would rerun it for nothing.
	if rt != nil {
		kept := rt.pendingNotify[:0]
		for _, task := range rt.pendingNotify {
			if task.sink != BindSink(n) {
				kept = append(kept, task)
			}
		}
		rt.pendingNotify = kept
	}

	n.value = value
	n.state = StateUpToDate
	n.sinks.ResetEdges()

	changed = changed || n.modifyAlways
	if changed {
		n.sinks.Notify(rt, AnySlot, LevelFor(n.modifyAlways, FullyDirty))
	}
	return changed
}

// Notify implements BindSink: an upstream source has (maybe) changed.
// Unless this node is modify-always, it has not recomputed yet and so
// cannot promise its own sinks anything stronger than MaybeDirty — only
// an actual recompute (forced here when hasty, otherwise deferred to the
// next read) determines whether this node's own value really changed,
// which is what recompute uses to decide the level it forwards onward.
// A hasty node that is also modify-always skips that eager recompute: its
// eventual state is already pinned to Dirty regardless of what recompute
// would find, so forcing the computation here buys nothing and only the
// next actual read should pay for it.
func (n *DependencyNode[T]) Notify(slot Slot, level DirtyLevel) {
	switch n.state {
	case StateUpToDate:
		next := StateMaybeDirty
		if level == LevelDirty || n.modifyAlways {
			next = StateDirty
		}
		n.state = next
		if n.hasty && !n.modifyAlways {
			n.ensureUpToDate()
			return
		}
		n.sinks.Notify(n.rt, AnySlot, LevelFor(n.modifyAlways, MaybeDirty))
	case StateMaybeDirty:
		if level == LevelDirty {
			n.state = StateDirty
		}
		if n.hasty && !n.modifyAlways {
			n.ensureUpToDate()
		}
		// Sinks were already told at least MaybeDirty on the first
		// transition into this state; nothing new to tell them until an
		// actual recompute happens.
	default:
		// Dirty is already the ceiling; None has no business being
		// notified (nothing observes it), ignore either way.
	}
}

// Bind implements BindSource: register sink as depending on this node.
func (n *DependencyNode[T]) Bind(sink WeakSink, slot Slot) BindKey {
	return n.sinks.Bind(sink, slot)
}

// Rebind implements BindSource.
func (n *DependencyNode[T]) Rebind(key BindKey, sink WeakSink, slot Slot) {
	n.sinks.Rebind(key, sink, slot)
}

// Unbind implements BindSource: drop a sink edge, scheduling discard if
// the node is now sink-less and not hot.
func (n *DependencyNode[T]) Unbind(key BindKey) {
	n.sinks.Unbind(key)
	if n.sinks.IsEmpty() && !n.hot && n.state != StateNone && !n.scheduledDiscard {
		n.scheduledDiscard = true
		n.rt.scheduleDiscard(n)
	}
}

// Check implements BindSource: resolve this node fully and report
// whether it changed.
func (n *DependencyNode[T]) Check(slot Slot) bool {
	return n.ensureUpToDate()
}

// FlushIfDirty implements the runtime's HotNode interface: hot nodes are
// swept by Runtime.Flush regardless of whether anything reads them.
func (n *DependencyNode[T]) FlushIfDirty() {
	if n.state == StateDirty || n.state == StateMaybeDirty {
		n.ensureUpToDate()
	}
}

// Discard implements the runtime's discardable interface.
func (n *DependencyNode[T]) Discard() {
	n.scheduledDiscard = false
	if !n.sinks.IsEmpty() || n.hot {
		return
	}
	n.discardNow()
}

func (n *DependencyNode[T]) discardNow() {
	if n.state == StateNone {
		return
	}
	n.rt.logDebug("discarding dependency node", "state", n.state.String())
	n.sources.UnbindAll()
	value := n.value
	var zero T
	n.value = zero
	n.state = StateNone
	if n.onDiscard != nil {
		n.onDiscard(value)
	}
}

// Dispose unconditionally discards the node, as if its last sink had
// dropped, regardless of its hot flag. Used by effect/subscription
// handles on explicit Stop.
func (n *DependencyNode[T]) Dispose() {
	if n.hot {
		n.rt.unregisterHot(n)
		n.hot = false
	}
	n.discardNow()
}
