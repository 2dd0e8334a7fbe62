// Package effect provides subscribers for the observer core.
//
// Effect runs a function immediately and re-runs it whenever a reactive
// value it read changes:
//
//	e := effect.NewEffect(func() effect.Cleanup {
//	    fmt.Println("title is", state.Get("title"))
//	    return nil
//	})
//	defer e.Stop()
//
// Computed caches a derived value and recomputes it lazily:
//
//	total := effect.NewComputed(func() int {
//	    return items.Get("list").(*observer.Array).Len()
//	})
//	n := total.Get()
//
// Both re-collect their dependencies on every evaluation and detach from
// deps they no longer read. Neither batches: scheduling is left to the
// caller through WithScheduler.
package effect
