package core

import (
	"context"
	"sync"
)

// Poll is the Go value type backing async signals, replacing Rust's
// std::task::Poll<T>: either Pending, or Ready carrying a value.
type Poll[T any] struct {
	ready bool
	value T
}

// PendingPoll constructs the not-yet-ready state.
func PendingPoll[T any]() Poll[T] {
	return Poll[T]{}
}

// ReadyPoll constructs the completed state carrying v.
func ReadyPoll[T any](v T) Poll[T] {
	return Poll[T]{ready: true, value: v}
}

// IsReady reports whether the poll completed.
func (p Poll[T]) IsReady() bool { return p.ready }

// Value returns the carried value and whether it is actually ready.
func (p Poll[T]) Value() (T, bool) { return p.value, p.ready }

// WakerFromSink builds a waker: a plain callback that, when invoked from
// any goroutine, schedules a notification on sink through the runtime's
// mutex-guarded wake table. This is the public bridge for callers who
// want to hook an arbitrary external async source into the notify table
// without going through FromFuture/FromStream — matching the original's
// public waker_from_sink.
func WakerFromSink(rt *Runtime, sink BindSink, slot Slot, level DirtyLevel) func() {
	return func() {
		rt.scheduleNotifyAsync(sink, slot, level)
	}
}

// AsyncActionContext lets code running on an async action's own goroutine
// call back into the runtime to schedule an action, safely from outside
// the runtime's single goroutine. It is valid only for the lifetime of
// the async action that owns it: once that action's body returns, the
// context is moved and any further Call panics, exactly as the original's
// AsyncActionContext asserts its inner pointer is non-null before
// dereferencing it.
type AsyncActionContext struct {
	mu sync.Mutex
	rt *Runtime
}

func newAsyncActionContext(rt *Runtime) *AsyncActionContext {
	return &AsyncActionContext{rt: rt}
}

// Call schedules fn as an action of kind on the owning runtime. Panics
// with ContextMovedError if the body of the async action that owns this
// context has already returned; cancelling its context alone does not
// invalidate it.
func (ac *AsyncActionContext) Call(kind Kind, fn func(*ActionContext)) {
	ac.mu.Lock()
	rt := ac.rt
	ac.mu.Unlock()
	if rt == nil {
		panic(newContextMovedError("the async action that owned this context has already finished"))
	}
	rt.ScheduleAction(kind, fn)
}

// move invalidates ac, called once the owning async action body returns.
func (ac *AsyncActionContext) move() {
	ac.mu.Lock()
	ac.rt = nil
	ac.mu.Unlock()
}

// RunAsyncAction spawns fn on its own goroutine with a context derived
// from ctx (or context.Background() if ctx is nil), registers its cancel
// function with the runtime so Runtime.Close cancels it, and returns a
// cancel function the caller can use to stop it early. fn is handed an
// AsyncActionContext it can use to call back into the runtime (in
// addition to the lower-level WakerFromSink bridge a FromFuture/FromStream
// adapter reads), matching the Rust original's AsyncActionContext-driven
// async action body. The context moves as soon as fn returns.
func RunAsyncAction(rt *Runtime, ctx context.Context, fn func(context.Context, *AsyncActionContext)) context.CancelFunc {
	if ctx == nil {
		ctx = context.Background()
	}
	childCtx, cancel := context.WithCancel(ctx)
	rt.registerAsyncCancel(cancel)
	ac := newAsyncActionContext(rt)
	go func() {
		defer ac.move()
		fn(childCtx, ac)
	}()
	return cancel
}
