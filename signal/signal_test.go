package signal

import (
	"testing"

	"github.com/reactorx/reactor/core"
	"github.com/reactorx/reactor/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderMapChain(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()

	count := state.New(rt, 2)
	doubled := Map(New[int](rt, count), func(v int) int { return v * 2 })
	plusOne := Map(doubled, func(v int) int { return v + 1 })

	assert.Equal(t, 5, plusOne.Value(nil))
}

func TestBuilderDedupSuppressesUnchangedOutput(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()
	rt.RegisterActionKind("test")

	count := state.New(rt, 4)
	parity := Dedup(Map(New[int](rt, count), func(v int) int { return v % 2 }))

	var runs int
	sink := core.NewDependencyNode(rt, func(sc *core.SignalContext) (int, bool) {
		runs++
		return parity.Value(sc), true
	}, core.WithHot[int]())
	require.Equal(t, 0, sink.Value(nil))
	require.Equal(t, 1, runs)

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		count.Set(ac, 6) // still even: parity unchanged
	})
	rt.Flush()

	assert.Equal(t, 1, runs, "sink must not rerun when parity did not change")
}

func TestBuilderScan(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()
	rt.RegisterActionKind("test")

	count := state.New(rt, 1)
	sum := Scan(New[int](rt, count), 0, func(acc, v int) int { return acc + v })
	require.Equal(t, 1, sum.Value(nil))

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		count.Set(ac, 2)
	})
	rt.DispatchActions()
	rt.DispatchReactions()
	assert.Equal(t, 3, sum.Value(nil))

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		count.Set(ac, 3)
	})
	rt.DispatchActions()
	rt.DispatchReactions()
	assert.Equal(t, 6, sum.Value(nil))
}

func TestSignalPtrEq(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()

	a := state.New(rt, 1)
	b := state.New(rt, 1)

	s1 := a.ToSignal()
	s2 := a.ToSignal()
	s3 := New[int](rt, a).Signal()
	other := b.ToSignal()

	assert.True(t, s1.PtrEq(s2), "two signals over the same state must be PtrEq")
	assert.True(t, s1.PtrEq(s3), "PtrEq must see through the Builder chain to the same underlying state")
	assert.False(t, s1.PtrEq(other), "signals over distinct states with equal values must not be PtrEq")
}

func TestBuilderFlatMapFollowsInnerSignal(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()
	rt.RegisterActionKind("test")

	useSecond := state.New(rt, false)
	a := state.New(rt, 1)
	b := state.New(rt, 100)

	flat := FlatMap(New[bool](rt, useSecond), func(use bool) Signal[int] {
		if use {
			return b.ToSignal()
		}
		return a.ToSignal()
	})
	require.Equal(t, 1, flat.Value(nil))

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		a.Set(ac, 2)
	})
	rt.DispatchActions()
	rt.DispatchReactions()
	assert.Equal(t, 2, flat.Value(nil), "still following a while useSecond is false")

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		useSecond.Set(ac, true)
	})
	rt.DispatchActions()
	rt.DispatchReactions()
	assert.Equal(t, 100, flat.Value(nil))

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		a.Set(ac, 999) // no longer tracked: must not affect flat
	})
	rt.DispatchActions()
	rt.DispatchReactions()
	assert.Equal(t, 100, flat.Value(nil))
}
