package effect

import (
	"github.com/vango-dev/observer/pkg/observer"
)

// Computed is a cached derived value. It is marked dirty when a dependency
// changes and recomputes on the next Get.
//
// Reading a Computed inside another evaluation makes the outer subscriber
// depend on everything the Computed read.
type Computed[T any] struct {
	id uint64

	compute func() T
	value   T

	// dirty indicates the cached value must be recomputed.
	dirty bool

	// computing prevents infinite recursion through self-reads.
	computing bool

	deps depSet
}

// NewComputed creates a computed value. Nothing is computed until Get.
func NewComputed[T any](compute func() T) *Computed[T] {
	return &Computed[T]{
		id:      nextID(),
		compute: compute,
		dirty:   true,
	}
}

// Get returns the value, recomputing it if dirty, and forwards the
// computed's dependencies to the active target.
func (c *Computed[T]) Get() T {
	if c.dirty {
		c.evaluate()
	}
	if observer.Target() != nil {
		c.Depend()
	}
	return c.value
}

// Peek returns the value without registering dependencies.
// It still recomputes if dirty.
func (c *Computed[T]) Peek() T {
	if c.dirty {
		c.evaluate()
	}
	return c.value
}

// Dirty reports whether the next Get will recompute.
func (c *Computed[T]) Dirty() bool {
	return c.dirty
}

// Depend registers the active target on every dep this computed read.
func (c *Computed[T]) Depend() {
	for _, d := range c.deps.list() {
		d.Depend()
	}
}

// ID returns the unique identifier for this computed.
// Implements observer.Subscriber.
func (c *Computed[T]) ID() uint64 {
	return c.id
}

// AddDep records d as a dependency of the current evaluation.
// Implements observer.Subscriber.
func (c *Computed[T]) AddDep(d *observer.Dep) {
	if c.deps.add(d) {
		d.AddSub(c)
	}
}

// Update marks the value dirty.
// Implements observer.Subscriber.
func (c *Computed[T]) Update() {
	c.dirty = true
}

// Release detaches the computed from all deps.
func (c *Computed[T]) Release() {
	c.deps.release(c)
	c.dirty = true
}

func (c *Computed[T]) evaluate() {
	if c.computing {
		return
	}
	c.computing = true
	defer func() { c.computing = false }()

	var value T
	observer.WithTarget(c, func() {
		value = c.compute()
	})
	c.deps.swap(c)
	c.value = value
	c.dirty = false
}

var _ observer.Subscriber = (*Computed[int])(nil)
