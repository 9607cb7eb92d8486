package core

import (
	"context"
	"log/slog"
	"sync"

	"github.com/petermattis/goid"
)

// Kind is a registered tag partitioning a runtime's action and reaction
// queues. Scheduling work under an unregistered Kind panics.
type Kind string

var runtimes sync.Map // goroutine id (int64) -> *Runtime

// HotNode is the non-generic view a hot DependencyNode exposes so the
// runtime can sweep it during Flush without knowing its result type.
type HotNode interface {
	FlushIfDirty()
}

// Discardable is the non-generic view a node exposes to the runtime's
// discard queue.
type Discardable interface {
	Discard()
}

type notifyTask struct {
	sink  BindSink
	slot  Slot
	level DirtyLevel
}

type deferredUnbind struct {
	source BindSource
	key    BindKey
}

// RuntimeOption configures a Runtime at construction time.
type RuntimeOption func(*runtimeConfig)

type runtimeConfig struct {
	logger *slog.Logger
}

// WithLogger attaches a structured logger the runtime uses for
// node-discard, cycle-detection, and flush-overrun diagnostics. Defaults
// to slog.Default() when omitted.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(c *runtimeConfig) { c.logger = logger }
}

// Runtime is a goroutine-local singleton owning the action/reaction/
// discard queues, the pending-notify buffer, the deferred-unbind buffer,
// and the hot-node registry. At most one Runtime may exist per goroutine
// at a time.
type Runtime struct {
	gid    int64
	logger *slog.Logger

	registeredActions   map[Kind]bool
	registeredReactions map[Kind]bool
	actionQueues        map[Kind][]func(*ActionContext)
	reactionQueues      map[Kind][]func(*ReactionContext)

	pendingNotify   []notifyTask
	deferredUnbinds []deferredUnbind
	discardQueue    []Discardable

	hotNodes map[HotNode]struct{}

	callDepth int

	readyWaiters []chan struct{}

	asyncCancels []context.CancelFunc

	wakeRequests []notifyTask

	lent bool

	mu sync.Mutex
}

// checkAvailable panics with RuntimeUnavailableError if the runtime is
// currently lent out (via Lend) and the caller isn't the innermost Call
// frame that is allowed to use it. A Lend whose handle is leaked — never
// passed to RuntimeLend.Call — leaves the runtime permanently
// unavailable through any other method, matching the documented failure
// mode for a leaked RuntimeLend.
func (rt *Runtime) checkAvailable() {
	rt.mu.Lock()
	unavailable := rt.lent && rt.callDepth == 0
	rt.mu.Unlock()
	if unavailable {
		panic(newRuntimeUnavailableError("runtime is lent out; access it through RuntimeLend.Call"))
	}
}

// logDebug and logWarn are nil-safe: tests exercise DependencyNode against
// a bare &Runtime{} that skips NewRuntime's default-logger assignment, so
// every logging call site goes through these rather than rt.logger directly.
func (rt *Runtime) logDebug(msg string, args ...any) {
	if rt.logger != nil {
		rt.logger.Debug(msg, args...)
	}
}

func (rt *Runtime) logWarn(msg string, args ...any) {
	if rt.logger != nil {
		rt.logger.Warn(msg, args...)
	}
}

// NewRuntime creates the runtime for the calling goroutine. Calling this
// again on a goroutine that already owns a live runtime panics.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	var cfg runtimeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	gid := goid.Get()
	if _, exists := runtimes.Load(gid); exists {
		panic(newDuplicateRuntimeError(gid))
	}

	rt := &Runtime{
		gid:                  gid,
		logger:               cfg.logger,
		registeredActions:    make(map[Kind]bool),
		registeredReactions:  make(map[Kind]bool),
		actionQueues:         make(map[Kind][]func(*ActionContext)),
		reactionQueues:       make(map[Kind][]func(*ReactionContext)),
		hotNodes:             make(map[HotNode]struct{}),
	}
	runtimes.Store(gid, rt)
	return rt
}

// CurrentRuntime returns the runtime owned by the calling goroutine, or
// nil if none exists.
func CurrentRuntime() *Runtime {
	v, ok := runtimes.Load(goid.Get())
	if !ok {
		return nil
	}
	return v.(*Runtime)
}

// Close tears the runtime down: every live async action's context is
// cancelled without waiting for it to observe cancellation, and the
// runtime is removed from the goroutine registry so a fresh one may be
// constructed later on the same goroutine.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	cancels := rt.asyncCancels
	rt.asyncCancels = nil
	rt.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	runtimes.Delete(rt.gid)
}

// RegisterActionKind registers kind so actions may be scheduled under it.
func (rt *Runtime) RegisterActionKind(kind Kind) {
	rt.checkAvailable()
	rt.registeredActions[kind] = true
}

// RegisterReactionKind registers kind so reactions may be scheduled under it.
func (rt *Runtime) RegisterReactionKind(kind Kind) {
	rt.checkAvailable()
	rt.registeredReactions[kind] = true
}

// ScheduleAction enqueues fn under kind, which must already be registered.
func (rt *Runtime) ScheduleAction(kind Kind, fn func(*ActionContext)) {
	rt.checkAvailable()
	if !rt.registeredActions[kind] {
		panic(newUnregisteredKindError(kind))
	}
	rt.actionQueues[kind] = append(rt.actionQueues[kind], fn)
	rt.wakeReady()
}

// ScheduleReaction enqueues fn under kind, which must already be registered.
func (rt *Runtime) ScheduleReaction(kind Kind, fn func(*ReactionContext)) {
	rt.checkAvailable()
	if !rt.registeredReactions[kind] {
		panic(newUnregisteredKindError(kind))
	}
	rt.reactionQueues[kind] = append(rt.reactionQueues[kind], fn)
	rt.wakeReady()
}

// ScheduleNotify appends a notify task, applied breadth-first the next
// time DispatchReactions (or Flush) runs, before any reaction executes.
func (rt *Runtime) ScheduleNotify(sink BindSink, slot Slot, level DirtyLevel) {
	rt.checkAvailable()
	rt.pendingNotify = append(rt.pendingNotify, notifyTask{sink: sink, slot: slot, level: level})
	rt.wakeReady()
}

func (rt *Runtime) deferUnbind(source BindSource, key BindKey) {
	rt.deferredUnbinds = append(rt.deferredUnbinds, deferredUnbind{source: source, key: key})
	rt.wakeReady()
}

func (rt *Runtime) scheduleDiscard(d Discardable) {
	rt.discardQueue = append(rt.discardQueue, d)
	rt.wakeReady()
}

// scheduleNotifyAsync is the thread-safe entry point used by a waker
// running on a goroutine other than the one that owns rt: it only
// appends the wake request to a mutex-guarded buffer, drained into
// pendingNotify by applyNotify on the owning goroutine's next dispatch.
func (rt *Runtime) scheduleNotifyAsync(sink BindSink, slot Slot, level DirtyLevel) {
	rt.mu.Lock()
	rt.wakeRequests = append(rt.wakeRequests, notifyTask{sink: sink, slot: slot, level: level})
	waiters := rt.readyWaiters
	rt.readyWaiters = nil
	rt.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

// registerAsyncCancel records cancel so Runtime.Close cancels it.
func (rt *Runtime) registerAsyncCancel(cancel context.CancelFunc) {
	rt.mu.Lock()
	rt.asyncCancels = append(rt.asyncCancels, cancel)
	rt.mu.Unlock()
}

func (rt *Runtime) registerHot(n HotNode) {
	rt.hotNodes[n] = struct{}{}
}

func (rt *Runtime) unregisterHot(n HotNode) {
	delete(rt.hotNodes, n)
}

// DispatchActions runs every queued action under the given kinds (or
// every registered kind, if none are given) and reports whether any ran.
func (rt *Runtime) DispatchActions(kinds ...Kind) bool {
	rt.checkAvailable()
	targets := kinds
	if len(targets) == 0 {
		for k := range rt.registeredActions {
			targets = append(targets, k)
		}
	}

	ran := false
	ac := &ActionContext{rt: rt}
	for _, k := range targets {
		queue := rt.actionQueues[k]
		if len(queue) == 0 {
			continue
		}
		rt.actionQueues[k] = nil
		for _, fn := range queue {
			fn(ac)
			ran = true
		}
	}
	return ran
}

// applyNotify drains the pending-notify buffer breadth-first: calling a
// sink's Notify may itself enqueue further notify tasks (propagating
// further downstream), which this loop keeps draining until none remain.
func (rt *Runtime) applyNotify() {
	rt.mu.Lock()
	if len(rt.wakeRequests) > 0 {
		rt.pendingNotify = append(rt.pendingNotify, rt.wakeRequests...)
		rt.wakeRequests = nil
	}
	rt.mu.Unlock()

	for len(rt.pendingNotify) > 0 {
		task := rt.pendingNotify[0]
		rt.pendingNotify = rt.pendingNotify[1:]
		task.sink.Notify(task.slot, task.level)
	}
}

// DispatchReactions first applies every pending notification (so the
// reactions about to run see a fully propagated, glitch-free snapshot),
// then runs every queued reaction under the given kinds.
func (rt *Runtime) DispatchReactions(kinds ...Kind) bool {
	rt.checkAvailable()
	rt.applyNotify()

	targets := kinds
	if len(targets) == 0 {
		for k := range rt.registeredReactions {
			targets = append(targets, k)
		}
	}

	ran := false
	for _, k := range targets {
		queue := rt.reactionQueues[k]
		if len(queue) == 0 {
			continue
		}
		rt.reactionQueues[k] = nil
		sc := &SignalContext{rt: rt}
		rc := &ReactionContext{sc: sc}
		for _, fn := range queue {
			fn(rc)
			ran = true
		}
	}
	return ran
}

// DispatchDiscards drains the deferred-unbind buffer and then runs every
// scheduled discard. Only called once no action or reaction is pending,
// so a node is never discarded while a consumer still expects its cache.
func (rt *Runtime) DispatchDiscards() bool {
	rt.checkAvailable()
	ran := false
	for len(rt.deferredUnbinds) > 0 {
		u := rt.deferredUnbinds[0]
		rt.deferredUnbinds = rt.deferredUnbinds[1:]
		u.source.Unbind(u.key)
		ran = true
	}
	for len(rt.discardQueue) > 0 {
		d := rt.discardQueue[0]
		rt.discardQueue = rt.discardQueue[1:]
		d.Discard()
		ran = true
	}
	return ran
}

func (rt *Runtime) flushHotNodes() bool {
	ran := false
	for n := range rt.hotNodes {
		n.FlushIfDirty()
		ran = true
	}
	return ran
}

// flushOverrunThreshold is the pass count past which Flush logs a warning:
// well past any legitimate depth of action-triggered rescheduling, so
// hitting it means some action is perpetually rescheduling more work for
// itself (or another) rather than the loop ever draining.
const flushOverrunThreshold = 10000

// Flush loops actions -> hot-node sweep -> reactions -> discards until a
// complete pass finds no work at all.
func (rt *Runtime) Flush() {
	rt.checkAvailable()
	passes := 0
	warned := false
	for {
		didAction := rt.DispatchActions()
		rt.flushHotNodes()
		hadWork := rt.hasWork()
		didReaction := rt.DispatchReactions()
		didDiscard := rt.DispatchDiscards()
		if !didAction && !hadWork && !didReaction && !didDiscard && len(rt.pendingNotify) == 0 {
			return
		}
		passes++
		if passes > flushOverrunThreshold && !warned {
			rt.logWarn("flush has not converged after many passes; an action may be rescheduling itself indefinitely", "passes", passes)
			warned = true
		}
	}
}

func (rt *Runtime) hasWork() bool {
	rt.mu.Lock()
	pendingWakes := len(rt.wakeRequests)
	rt.mu.Unlock()
	if pendingWakes > 0 {
		return true
	}
	if len(rt.pendingNotify) > 0 || len(rt.deferredUnbinds) > 0 || len(rt.discardQueue) > 0 {
		return true
	}
	for _, q := range rt.actionQueues {
		if len(q) > 0 {
			return true
		}
	}
	for _, q := range rt.reactionQueues {
		if len(q) > 0 {
			return true
		}
	}
	return false
}

func (rt *Runtime) wakeReady() {
	rt.mu.Lock()
	waiters := rt.readyWaiters
	rt.readyWaiters = nil
	rt.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

// RuntimeLend is the re-entrancy mechanism letting a Runtime be passed
// through a non-reactive boundary (e.g. a callback into foreign code) and
// then recovered by the innermost frame. Reentering Call fails.
type RuntimeLend struct {
	rt *Runtime
}

// Lend produces a handle that a non-reactive boundary can hold onto and
// later use to call back into the runtime. From this point on, the
// runtime is reachable only through that handle's Call: any other
// *Runtime method panics with RuntimeUnavailableError until a Call frame
// is active, since Go has no destructor to auto-return the lend the way
// the original's RuntimeLend::drop does.
func (rt *Runtime) Lend() *RuntimeLend {
	rt.mu.Lock()
	rt.lent = true
	rt.mu.Unlock()
	return &RuntimeLend{rt: rt}
}

// Call invokes f with exclusive access to the runtime. Calling Call again
// from inside f (directly or via a re-entered Lend) panics.
func (l *RuntimeLend) Call(f func(*Runtime)) {
	rt := l.rt
	rt.mu.Lock()
	if rt.callDepth > 0 {
		rt.mu.Unlock()
		panic(newReentrantAccessError("Runtime.Call invoked while already inside a Call"))
	}
	rt.callDepth++
	rt.mu.Unlock()

	defer func() {
		rt.mu.Lock()
		rt.callDepth--
		rt.mu.Unlock()
	}()

	f(rt)
}

// Call is shorthand for Lend().Call(f).
func (rt *Runtime) Call(f func(*Runtime)) {
	rt.Lend().Call(f)
}

// WaitForReady returns a channel that closes once the runtime has work
// pending (a queued action/reaction, a pending notify, or a scheduled
// discard) or ctx is cancelled — the channel-based analogue of the Rust
// original's Waker-polling wait_for_ready.
func (l *RuntimeLend) WaitForReady(ctx context.Context) <-chan struct{} {
	rt := l.rt
	ch := make(chan struct{})
	if rt.hasWork() {
		close(ch)
		return ch
	}
	rt.mu.Lock()
	rt.readyWaiters = append(rt.readyWaiters, ch)
	rt.mu.Unlock()
	if ctx != nil {
		go func() {
			<-ctx.Done()
			rt.mu.Lock()
			defer rt.mu.Unlock()
			select {
			case <-ch:
			default:
				close(ch)
			}
		}()
	}
	return ch
}
