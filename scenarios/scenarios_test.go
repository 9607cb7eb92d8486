// Package scenarios exercises the six concrete end-to-end scenarios the
// specification calls out explicitly, each as a standalone test so a
// reader can match test name to scenario without cross-referencing
// anything else.
package scenarios

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/reactorx/reactor/core"
	"github.com/reactorx/reactor/effect"
	"github.com/reactorx/reactor/signal"
	"github.com/reactorx/reactor/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioChainedPropagation(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()
	rt.RegisterActionKind("test")

	a := state.New(rt, 0)
	b := signal.New[int](rt, a)
	c := signal.Map(b, func(v int) int { return v })
	d := signal.Map(c, func(v int) int { return v })

	require.Equal(t, 0, d.Value(nil))

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		a.Set(ac, 10)
	})
	rt.Flush()

	assert.Equal(t, 10, d.Value(nil))
}

func TestScenarioDedup(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()
	rt.RegisterActionKind("test")

	a := state.New(rt, 5)
	s := signal.Dedup(signal.New[int](rt, a))

	var printed []string
	eff := effect.Run(rt, func(sc *core.SignalContext) {
		printed = append(printed, strconv.Itoa(s.Value(sc)))
	})
	defer eff.Stop()

	assert.Equal(t, []string{"5"}, printed)

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		a.Set(ac, 5)
	})
	rt.Flush()
	assert.Equal(t, []string{"5"}, printed, "writing the same value must not re-fire the effect")

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		a.Set(ac, 10)
	})
	rt.Flush()
	assert.Equal(t, []string{"5", "10"}, printed)
}

func TestScenarioGlitchFreedom(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()
	rt.RegisterActionKind("test")

	a := state.New(rt, 1)
	aSig := signal.New[int](rt, a)
	b := signal.Map(aSig, func(v int) int { return v + 1 })
	c := signal.MapValue(aSig, func(v int, sc *core.SignalContext) int {
		return v + b.Value(sc)
	})

	var recorded []int
	eff := effect.Run(rt, func(sc *core.SignalContext) {
		recorded = append(recorded, c.Value(sc))
	})
	defer eff.Stop()

	require.Equal(t, []int{3}, recorded)

	rt.ScheduleAction("test", func(ac *core.ActionContext) {
		a.Set(ac, 5)
	})
	rt.Flush()

	assert.Equal(t, []int{3, 11}, recorded, "no glitched intermediate value (e.g. 7) may appear")
}

func TestScenarioDiscardHook(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()
	rt.RegisterActionKind("test")

	a := state.New(rt, 1)
	var logged []string
	derived := core.NewDependencyNode(rt, func(sc *core.SignalContext) (int, bool) {
		return a.Get(sc) * 2, true
	}, core.WithOnDiscard(func(int) { logged = append(logged, "d") }))

	consumer := core.NewDependencyNode(rt, func(sc *core.SignalContext) (int, bool) {
		return derived.Value(sc) + 1, true
	})
	require.Equal(t, 3, consumer.Value(nil))

	consumer.Dispose()
	rt.Flush()

	assert.Equal(t, []string{"d"}, logged)
}

func TestScenarioAsyncSignal(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()

	ch := make(chan int, 1)
	s := signal.FromFuture(rt, context.Background(), func(ctx context.Context) int {
		return <-ch
	})

	require.False(t, s.Value(nil).IsReady())

	ch <- 20
	deadline := time.Now().Add(2 * time.Second)
	for {
		rt.Flush()
		if s.Value(nil).IsReady() || !time.Now().Before(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	v := s.Value(nil)
	got, ready := v.Value()
	require.True(t, ready)
	assert.Equal(t, 20, got)
}

func TestScenarioCyclePanics(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()

	cell := state.New(rt, signal.Of[int](zeroSignal{}))

	s := signal.FlatMap(signal.New[signal.Signal[int]](rt, cell), func(inner signal.Signal[int]) signal.Signal[int] {
		return inner
	})

	cell.Set(&core.ActionContext{}, s.Signal())
	rt.Flush()

	assert.PanicsWithError(t, "detected cyclic dependency: node read while its own compute is in progress", func() {
		s.Value(nil)
	})
}

type zeroSignal struct{}

func (zeroSignal) Value(sc *core.SignalContext) int { return 0 }
