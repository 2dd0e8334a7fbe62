package effect

import (
	"sync/atomic"

	"github.com/vango-dev/observer/pkg/observer"
)

// globalIDCounter is the source of unique subscriber IDs.
var globalIDCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// Cleanup is a function returned by effects to release resources.
// It is called before the effect re-runs and when the effect is stopped.
type Cleanup func()

// Effect is a subscriber that runs a function and re-runs it whenever a
// reactive value read during the last run changes.
type Effect struct {
	id   uint64
	name string

	fn      func() Cleanup
	cleanup Cleanup

	deps depSet

	// scheduler, when set, receives updates instead of an immediate re-run.
	scheduler func(*Effect)

	// running is set while fn executes; updates triggered by the effect's
	// own writes are ignored.
	running bool

	runs    int
	stopped atomic.Bool
}

// Option configures an Effect.
type Option func(*Effect)

// WithName sets a name used by tooling to identify the effect.
func WithName(name string) Option {
	return func(e *Effect) {
		e.name = name
	}
}

// WithScheduler hands every update to fn instead of re-running the effect
// synchronously. fn decides when to call Run.
func WithScheduler(fn func(*Effect)) Option {
	return func(e *Effect) {
		e.scheduler = fn
	}
}

// NewEffect creates an effect and runs it immediately.
//
// Example:
//
//	NewEffect(func() Cleanup {
//	    fmt.Println("count is", state.Get("count"))
//	    return func() { fmt.Println("cleanup") }
//	})
func NewEffect(fn func() Cleanup, opts ...Option) *Effect {
	e := &Effect{
		id: nextID(),
		fn: fn,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Run()
	return e
}

// ID returns the unique identifier for this effect.
// Implements observer.Subscriber.
func (e *Effect) ID() uint64 {
	return e.id
}

// Name returns the name given with WithName.
func (e *Effect) Name() string {
	return e.name
}

// AddDep records d as a dependency of the current run.
// Implements observer.Subscriber.
func (e *Effect) AddDep(d *observer.Dep) {
	if e.deps.add(d) {
		d.AddSub(e)
	}
}

// Update re-runs the effect, or hands it to the scheduler.
// Implements observer.Subscriber.
func (e *Effect) Update() {
	if e.stopped.Load() || e.running {
		return
	}
	if e.scheduler != nil {
		e.scheduler(e)
		return
	}
	e.Run()
}

// Run executes the effect function with dependency tracking.
func (e *Effect) Run() {
	if e.stopped.Load() {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.running = true
	defer func() { e.running = false }()

	observer.WithTarget(e, func() {
		e.cleanup = e.fn()
	})
	e.deps.swap(e)
	e.runs++
}

// Runs returns how many times the effect has run.
func (e *Effect) Runs() int {
	return e.runs
}

// Deps returns the deps read by the last run.
func (e *Effect) Deps() []*observer.Dep {
	return e.deps.list()
}

// Stop runs the cleanup and detaches the effect from all deps.
// A stopped effect never runs again.
func (e *Effect) Stop() {
	if e.stopped.Swap(true) {
		return
	}
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.deps.release(e)
}

// Stopped reports whether Stop was called.
func (e *Effect) Stopped() bool {
	return e.stopped.Load()
}

var _ observer.Subscriber = (*Effect)(nil)
