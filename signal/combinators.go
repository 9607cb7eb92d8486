package signal

import "github.com/reactorx/reactor/core"

// Map transforms every value of b through f, producing a new signal that
// recomputes whenever b's does.
func Map[T, U any](b *Builder[T], f func(T) U) *Builder[U] {
	cur := b.cur
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (U, bool) {
		return f(cur.Value(sc)), true
	})
	return &Builder[U]{rt: b.rt, cur: Of[U](node)}
}

// MapValue is Map for transforms that also need to read other signals
// through the same tracking context (sc) as part of producing their
// result, so those reads become dependencies of the resulting node too.
func MapValue[T, U any](b *Builder[T], f func(T, *core.SignalContext) U) *Builder[U] {
	cur := b.cur
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (U, bool) {
		return f(cur.Value(sc), sc), true
	})
	return &Builder[U]{rt: b.rt, cur: Of[U](node)}
}

// FlatMap maps each value of b to a signal and follows it, re-tracking
// through whichever inner signal f last returned. Because the dependency
// cursor rebuilds from scratch every recompute, switching to a different
// inner signal on one pass correctly drops the previous one's edge and
// binds the new one's, with no stale dependency left behind.
func FlatMap[T, U any](b *Builder[T], f func(T) Signal[U]) *Builder[U] {
	cur := b.cur
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (U, bool) {
		inner := f(cur.Value(sc))
		return inner.Value(sc), true
	})
	return &Builder[U]{rt: b.rt, cur: Of[U](node)}
}

// Flatten follows a signal of signals, always tracking whichever inner
// signal is current.
func Flatten[T any](b *Builder[Signal[T]]) *Builder[T] {
	return FlatMap(b, func(s Signal[T]) Signal[T] { return s })
}

// Scan folds every value of b into an accumulator, starting from seed,
// emitting the accumulator itself as the resulting signal's value.
func Scan[T, U any](b *Builder[T], seed U, f func(acc U, v T) U) *Builder[U] {
	cur := b.cur
	acc := seed
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (U, bool) {
		acc = f(acc, cur.Value(sc))
		return acc, true
	})
	return &Builder[U]{rt: b.rt, cur: Of[U](node)}
}

// ScanFilter is Scan where f may decline to fold a given value (returning
// ok=false), in which case the accumulator — and the resulting signal —
// does not change on that pass.
func ScanFilter[T, U any](b *Builder[T], seed U, f func(acc U, v T) (next U, ok bool)) *Builder[U] {
	cur := b.cur
	acc := seed
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (U, bool) {
		next, ok := f(acc, cur.Value(sc))
		if !ok {
			return acc, false
		}
		acc = next
		return acc, true
	})
	return &Builder[U]{rt: b.rt, cur: Of[U](node)}
}

// Dedup suppresses consecutive equal values using ==, so downstream
// sinks only see a change when the value actually differs from the one
// before it.
func Dedup[T comparable](b *Builder[T]) *Builder[T] {
	return DedupBy(b, func(a, c T) bool { return a == c })
}

// DedupBy is Dedup with a caller-supplied equality, for T that isn't
// comparable with ==.
func DedupBy[T any](b *Builder[T], eq core.EqualFunc[T]) *Builder[T] {
	cur := b.cur
	var last T
	first := true
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (T, bool) {
		v := cur.Value(sc)
		if !first && eq(last, v) {
			return last, false
		}
		first = false
		last = v
		return v, true
	})
	return &Builder[T]{rt: b.rt, cur: Of[T](node)}
}

// DedupByKey suppresses consecutive values that project to the same key,
// for values too expensive or too structurally awkward to compare
// directly.
func DedupByKey[T any, K comparable](b *Builder[T], key func(T) K) *Builder[T] {
	cur := b.cur
	var lastKey K
	var lastVal T
	first := true
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (T, bool) {
		v := cur.Value(sc)
		k := key(v)
		if !first && k == lastKey {
			return lastVal, false
		}
		first = false
		lastKey = k
		lastVal = v
		return v, true
	})
	return &Builder[T]{rt: b.rt, cur: Of[T](node)}
}

// Memo forces b's result through its own dependency node, so repeated
// reads of the resulting builder at different slots/sinks all share one
// cached computation rather than rerunning b's own derivation each time.
func Memo[T any](b *Builder[T]) *Builder[T] {
	cur := b.cur
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (T, bool) {
		return cur.Value(sc), true
	})
	return &Builder[T]{rt: b.rt, cur: Of[T](node)}
}

// Hasty rewraps b so its node recomputes eagerly as soon as it is
// notified, rather than waiting for a downstream read to force it.
func Hasty[T any](b *Builder[T]) *Builder[T] {
	cur := b.cur
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (T, bool) {
		return cur.Value(sc), true
	}, core.WithHasty[T]())
	return &Builder[T]{rt: b.rt, cur: Of[T](node)}
}

// Hot rewraps b so its node stays computed even while it has no sinks.
func Hot[T any](b *Builder[T]) *Builder[T] {
	cur := b.cur
	node := core.NewDependencyNode(b.rt, func(sc *core.SignalContext) (T, bool) {
		return cur.Value(sc), true
	}, core.WithHot[T]())
	return &Builder[T]{rt: b.rt, cur: Of[T](node)}
}

// Keep is Hot: it exists as a separate name for callers thinking in terms
// of "keep this alive" rather than "eagerly flush this".
func Keep[T any](b *Builder[T]) *Builder[T] {
	return Hot(b)
}
