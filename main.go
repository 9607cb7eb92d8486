package main

import (
	"fmt"
	"time"

	"github.com/reactorx/reactor/core"
	"github.com/reactorx/reactor/effect"
	"github.com/reactorx/reactor/signal"
	"github.com/reactorx/reactor/state"
)

func main() {
	rt := core.NewRuntime()
	defer rt.Close()
	rt.RegisterActionKind("demo")

	a := state.New(rt, 1)
	b := state.New(rt, 2)

	sum := signal.Memo(signal.MapValue(signal.New[int](rt, a), func(v int, sc *core.SignalContext) int {
		result := v + b.Get(sc)
		fmt.Println("  [MEMO] Computing sum:", result)
		return result
	}))

	eff := effect.Run(rt, func(sc *core.SignalContext) {
		fmt.Println("  [EFFECT] Sum is:", sum.Value(sc))
	})
	defer eff.Stop()

	fmt.Println("\nUpdating both a and b in one action...")
	rt.ScheduleAction("demo", func(ac *core.ActionContext) {
		a.Set(ac, 10)
		b.Set(ac, 20)
	})
	rt.Flush()

	fmt.Println("\nExpected: sum computes once per flush (30), not once per write")

	time.Sleep(10 * time.Millisecond)
}
