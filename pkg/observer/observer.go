package observer

import "sync/atomic"

// shouldObserve gates the creation of new Observers process-wide.
var shouldObserve atomic.Bool

func init() {
	shouldObserve.Store(true)
}

// ToggleObserving enables or disables the creation of new Observers.
// The flag is global; callers that disable it must restore it.
//
// Example:
//
//	observer.ToggleObserving(false)
//	defer observer.ToggleObserving(true)
//	bulkInit(state)
func ToggleObserving(value bool) {
	shouldObserve.Store(value)
}

// ShouldObserve reports whether new Observers may be created.
func ShouldObserve() bool {
	return shouldObserve.Load()
}

// Managed is implemented by values that manage their own observation.
// Observe skips them and Set/Del refuse to change their keys.
type Managed interface {
	IsManaged() bool
}

// VNode is implemented by values that may be virtual nodes of a rendering
// layer. Values reporting true are never observed.
type VNode interface {
	IsVNode() bool
}

// Observer instruments one *Object or *Array. It is attached to the value
// the first time the value is observed and lives as long as the value.
type Observer struct {
	value any

	// dep notifies subscribers when the container changes shape: keys added
	// or deleted through Set/Del, or a structural array mutation.
	dep *Dep

	// vmCount counts how many times the value was observed as root data.
	vmCount int
}

func newObserver(value any) *Observer {
	ob := &Observer{
		value: value,
		dep:   NewDep(),
	}

	switch v := value.(type) {
	case *Array:
		v.ob = ob
		if HasProto {
			protoAugment(v, arrayMethods)
		} else {
			copyAugment(v, arrayMethods, mutatingMethods)
		}
		ob.ObserveArray(v.items)
	case *Object:
		v.ob = ob
		ob.Walk(v)
	}

	currentHooks().ObserverCreated(ob)
	return ob
}

// Value returns the instrumented *Object or *Array.
func (ob *Observer) Value() any {
	return ob.value
}

// Dep returns the container-level dependency registry.
func (ob *Observer) Dep() *Dep {
	return ob.dep
}

// VMCount returns how many times the value was observed as root data.
func (ob *Observer) VMCount() int {
	return ob.vmCount
}

// Kind returns "array" or "object".
func (ob *Observer) Kind() string {
	if _, ok := ob.value.(*Array); ok {
		return "array"
	}
	return "object"
}

// Walk installs a reactive binding for every enumerable own key of obj.
func (ob *Observer) Walk(obj *Object) {
	for _, key := range obj.Keys() {
		DefineReactive(obj, key)
	}
}

// ObserveArray observes each item.
func (ob *Observer) ObserveArray(items []any) {
	for _, item := range items {
		Observe(item, false)
	}
}

// Observe returns the Observer of value, creating one if value is eligible.
//
// A new Observer is created only for a non-managed *Object or an *Array that
// is extensible, while observing is enabled and the process is not server
// rendering. Observing the same value again returns the same Observer.
// When asRootData is true the Observer's root count is incremented.
// Primitives, VNodes and ineligible values yield nil.
func Observe(value any, asRootData bool) *Observer {
	if value == nil {
		return nil
	}
	if isVNode(value) {
		return nil
	}

	var ob *Observer
	switch v := value.(type) {
	case *Object:
		if v == nil {
			return nil
		}
		ob = v.ob
	case *Array:
		if v == nil {
			return nil
		}
		ob = v.ob
	default:
		return nil
	}

	if ob == nil &&
		shouldObserve.Load() &&
		!isServerRendering() &&
		isExtensible(value) &&
		!isManaged(value) {
		ob = newObserver(value)
	}
	if asRootData && ob != nil {
		ob.vmCount++
	}
	return ob
}

// ObserverOf returns the Observer already attached to value, or nil.
// It never creates one.
func ObserverOf(value any) *Observer {
	return observerOf(value)
}

func observerOf(value any) *Observer {
	switch v := value.(type) {
	case *Object:
		if v != nil {
			return v.ob
		}
	case *Array:
		if v != nil {
			return v.ob
		}
	}
	return nil
}

func isExtensible(value any) bool {
	switch v := value.(type) {
	case *Object:
		return v.IsExtensible()
	case *Array:
		return v.IsExtensible()
	}
	return false
}

func isVNode(value any) bool {
	v, ok := value.(VNode)
	return ok && v.IsVNode()
}

func isManaged(value any) bool {
	m, ok := value.(Managed)
	return ok && m.IsManaged()
}
