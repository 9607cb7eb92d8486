// Package effect runs a reactive body for its side effects, rerunning it
// whenever anything it reads changes, and tearing it down on Stop.
package effect

import "github.com/reactorx/reactor/core"

// Effect is a hot, eagerly-recomputed node whose value is the cleanup
// function its own body last returned. Grounded on the teacher's own
// internal/effect.go, which builds an Effect as "just a Computed that
// returns a cleanup function", queued and run the same way a render or
// user effect is in the original runtime.
type Effect struct {
	node *core.DependencyNode[func()]
}

// New starts an effect: fn runs immediately, and again every time a value
// it read through sc changes. Before each rerun (and on Stop), the
// cleanup function fn returned last time — if any — runs first.
func New(rt *core.Runtime, fn func(sc *core.SignalContext) func()) *Effect {
	var cleanup func()

	node := core.NewDependencyNode(rt, func(sc *core.SignalContext) (func(), bool) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
		cleanup = fn(sc)
		return cleanup, true
	},
		core.WithHot[func()](),
		core.WithHasty[func()](),
		core.WithOnDiscard(func(c func()) {
			if c != nil {
				c()
			}
		}),
	)

	node.Value(nil)
	return &Effect{node: node}
}

// Run starts an effect with no cleanup: fn runs immediately and again on
// every change, with nothing to tear down between runs.
func Run(rt *core.Runtime, fn func(sc *core.SignalContext)) *Effect {
	return New(rt, func(sc *core.SignalContext) func() {
		fn(sc)
		return nil
	})
}

// Stop tears the effect down: its last cleanup (if any) runs, its source
// edges unbind, and it will not rerun again.
func (e *Effect) Stop() {
	e.node.Dispose()
}
