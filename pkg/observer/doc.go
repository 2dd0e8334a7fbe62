// Package observer provides the fine-grained reactive core.
//
// A value graph built from *Object and *Array is instrumented once by
// Observe. Every property read performed while a Subscriber is the active
// target registers that subscriber in the property's Dep; every write that
// changes the value notifies the Dep, which re-invokes the subscriber.
//
// # Core Types
//
// Dep is a per-property (or per-container) subscriber list:
//
//	dep := NewDep()
//	WithTarget(sub, func() { dep.Depend() }) // sub now depends on dep
//	dep.Notify()                             // sub.Update() runs
//
// Observer instruments an object or array:
//
//	state := NewObject()
//	state.Set("count", 0)
//	Observe(state, true)
//	state.Get("count")   // tracked read
//	state.Set("count", 1) // notifies readers of "count"
//
// Arrays are observed through their mutating methods:
//
//	items := NewArray(1, 2, 3)
//	Observe(items, false)
//	items.Push(4) // notifies readers of the array
//
// # Explicit Mutation
//
// Properties added or removed after observation are invisible to the
// accessor mechanism. Use Set and Del:
//
//	Set(state, "title", "hello") // new reactive key, container notified
//	Del(state, "title")
//
// # Threading
//
// The active-target stack is process-wide. Evaluation is expected to run on a
// single logical thread; nesting is synchronous. Dep subscriber lists are
// guarded so that notification fan-out works from a snapshot.
package observer
