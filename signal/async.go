package signal

import (
	"context"
	"sync"

	"github.com/reactorx/reactor/core"
)

// pollCell is the thread-safe box an async producer writes into from its
// own goroutine and a hot node reads from on the runtime's goroutine.
type pollCell[T any] struct {
	mu     sync.Mutex
	result core.Poll[T]
}

func (c *pollCell[T]) load() core.Poll[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

func (c *pollCell[T]) store(v core.Poll[T]) {
	c.mu.Lock()
	c.result = v
	c.mu.Unlock()
}

// FromFuture runs fn on its own goroutine and exposes its eventual result
// as a signal of core.Poll[T]: Pending until fn returns, then Ready with
// its value from then on. The node is hot and hasty, so the transition
// from Pending to Ready is picked up as soon as it happens rather than
// waiting for the next unrelated read.
func FromFuture[T any](rt *core.Runtime, ctx context.Context, fn func(context.Context) T) *Builder[core.Poll[T]] {
	cell := &pollCell[T]{result: core.PendingPoll[T]()}

	node := core.NewDependencyNode(rt, func(sc *core.SignalContext) (core.Poll[T], bool) {
		return cell.load(), true
	}, core.WithHasty[core.Poll[T]](), core.WithHot[core.Poll[T]]())

	waker := core.WakerFromSink(rt, node, core.AnySlot, core.LevelDirty)
	core.RunAsyncAction(rt, ctx, func(ctx context.Context, _ *core.AsyncActionContext) {
		v := fn(ctx)
		cell.store(core.ReadyPoll(v))
		waker()
	})

	return &Builder[core.Poll[T]]{rt: rt, cur: Of[core.Poll[T]](node)}
}

// FromStream runs produce on its own goroutine, which reports each new
// value through yield; the resulting signal always holds the most
// recently yielded value, starting from initial.
func FromStream[T any](rt *core.Runtime, ctx context.Context, initial T, produce func(ctx context.Context, yield func(T))) *Builder[T] {
	cell := &pollCell[T]{result: core.ReadyPoll(initial)}

	node := core.NewDependencyNode(rt, func(sc *core.SignalContext) (T, bool) {
		v, _ := cell.load().Value()
		return v, true
	}, core.WithHasty[T](), core.WithHot[T]())

	waker := core.WakerFromSink(rt, node, core.AnySlot, core.LevelDirty)
	core.RunAsyncAction(rt, ctx, func(ctx context.Context, _ *core.AsyncActionContext) {
		produce(ctx, func(v T) {
			cell.store(core.ReadyPoll(v))
			waker()
		})
	})

	return &Builder[T]{rt: rt, cur: Of[T](node)}
}
