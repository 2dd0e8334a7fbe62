package observer

import "sync"

// Subscriber is anything that can depend on reactive data.
// This interface is implemented by effects, computed values and render
// passes owned by collaborators.
type Subscriber interface {
	// ID returns a unique identifier for this subscriber.
	// Used to keep registration idempotent.
	ID() uint64

	// AddDep informs the subscriber that it now depends on d.
	// The subscriber decides how to record it; it may call d.AddSub.
	AddDep(d *Dep)

	// Update is invoked when one of the subscriber's dependencies changed.
	// It is expected to re-run the evaluation and re-register dependencies.
	Update()
}

// Dep is a dependency registry: the subscribers of one reactive property
// or one container.
type Dep struct {
	id uint64

	// subs are the subscribers in registration order.
	subs []Subscriber

	// mu protects subs.
	mu sync.Mutex
}

// NewDep creates an empty dependency registry.
func NewDep() *Dep {
	return &Dep{id: nextID()}
}

// ID returns the unique identifier for this dep.
func (d *Dep) ID() uint64 {
	return d.id
}

// AddSub registers s. Registering the same subscriber twice is a no-op.
func (d *Dep) AddSub(s Subscriber) {
	if s == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	sid := s.ID()
	for _, existing := range d.subs {
		if existing.ID() == sid {
			return
		}
	}
	d.subs = append(d.subs, s)
}

// RemoveSub unregisters s, keeping the order of the remaining subscribers.
func (d *Dep) RemoveSub(s Subscriber) {
	if s == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	sid := s.ID()
	for i, existing := range d.subs {
		if existing.ID() == sid {
			d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns a copy of the registered subscribers.
func (d *Dep) Subscribers() []Subscriber {
	d.mu.Lock()
	defer d.mu.Unlock()
	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)
	return subs
}

// Len returns the number of registered subscribers.
func (d *Dep) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Depend registers the active target, if any, and tells the target that it
// depends on d.
func (d *Dep) Depend() {
	target := Target()
	if target == nil {
		return
	}
	d.AddSub(target)
	target.AddDep(d)
}

// Notify invokes Update on every subscriber, in registration order.
// The list is copied before the fan-out so subscribers may register or
// unregister on d while it is notifying.
func (d *Dep) Notify() {
	subs := d.Subscribers()

	h := currentHooks()
	h.Notified(d, len(subs))
	defer h.NotifyDone(d)

	for _, sub := range subs {
		sub.Update()
	}
}

// targetStack is the process-wide stack of active subscribers.
// Only the top receives Depend registrations.
var targetStack struct {
	mu    sync.Mutex
	items []Subscriber
}

// Target returns the active subscriber, or nil when nothing is tracking.
func Target() Subscriber {
	targetStack.mu.Lock()
	defer targetStack.mu.Unlock()
	if n := len(targetStack.items); n > 0 {
		return targetStack.items[n-1]
	}
	return nil
}

// PushTarget makes s the active subscriber. Pushing nil suspends tracking
// until the matching PopTarget.
func PushTarget(s Subscriber) {
	targetStack.mu.Lock()
	targetStack.items = append(targetStack.items, s)
	targetStack.mu.Unlock()
}

// PopTarget restores the previously active subscriber.
func PopTarget() {
	targetStack.mu.Lock()
	defer targetStack.mu.Unlock()
	if n := len(targetStack.items); n > 0 {
		targetStack.items[n-1] = nil
		targetStack.items = targetStack.items[:n-1]
	}
}

// WithTarget runs fn with s as the active subscriber. The target is popped
// when fn returns, including on panic.
//
// Example:
//
//	WithTarget(render, func() {
//	    title := state.Get("title") // render now depends on "title"
//	    _ = title
//	})
func WithTarget(s Subscriber, fn func()) {
	PushTarget(s)
	defer PopTarget()
	fn()
}

// Untracked runs fn without registering reads as dependencies.
func Untracked(fn func()) {
	WithTarget(nil, fn)
}
