package observer

import (
	"github.com/vango-dev/observer/internal/errors"
)

// ReactiveOption configures DefineReactive.
type ReactiveOption func(*reactiveOptions)

type reactiveOptions struct {
	value        any
	hasValue     bool
	customSetter func()
	shallow      bool
}

// WithValue sets the initial value of the binding instead of reading the
// current one from the object.
func WithValue(v any) ReactiveOption {
	return func(o *reactiveOptions) {
		o.value = v
		o.hasValue = true
	}
}

// WithCustomSetter registers fn to run on every effective write, before
// subscribers are notified. It only runs in DevMode.
func WithCustomSetter(fn func()) ReactiveOption {
	return func(o *reactiveOptions) {
		o.customSetter = fn
	}
}

// Shallow disables observation of the binding's value. Only the property
// itself is reactive.
func Shallow() ReactiveOption {
	return func(o *reactiveOptions) {
		o.shallow = true
	}
}

// DefineReactive installs an intercepting accessor pair on obj[key].
//
// Reads register the active target in the property's own dep, in the dep of
// the value's Observer, and, for arrays, in the deps of every observed
// element. Writes that change the value (see SameValue) update it, observe
// the new value and notify the property's dep.
//
// An existing non-configurable slot is left untouched. An existing getter
// and setter are kept and delegated to; a getter without a setter makes the
// property read-only and writes are dropped.
func DefineReactive(obj *Object, key string, opts ...ReactiveOption) {
	var o reactiveOptions
	for _, opt := range opts {
		opt(&o)
	}

	dep := NewDep()

	property, exists := obj.props[key]
	if exists && !property.Configurable {
		return
	}

	var getter func() any
	var setter func(any)
	if exists {
		getter = property.Get
		setter = property.Set
	}

	val := o.value
	if (getter == nil || setter != nil) && !o.hasValue {
		val = obj.Get(key)
	}

	var childOb *Observer
	if !o.shallow {
		childOb = Observe(val, false)
	}

	reactiveGetter := func() any {
		value := val
		if getter != nil {
			value = getter()
		}
		if Target() != nil {
			dep.Depend()
			if childOb != nil {
				childOb.dep.Depend()
				if arr, ok := value.(*Array); ok {
					dependArray(arr)
				}
			}
		}
		return value
	}

	reactiveSetter := func(newVal any) {
		value := val
		if getter != nil {
			value = getter()
		}
		if SameValue(newVal, value) {
			return
		}
		if DevMode && o.customSetter != nil {
			o.customSetter()
		}
		if getter != nil && setter == nil {
			if Debug.ReportReadOnlyWrites {
				warn(errors.New("W005").WithDetailf("key %q", key))
			}
			return
		}
		if setter != nil {
			setter(newVal)
		} else {
			val = newVal
		}
		if !o.shallow {
			childOb = Observe(newVal, false)
		}
		dep.Notify()
	}

	obj.DefineProperty(key, Descriptor{
		Get:          reactiveGetter,
		Set:          reactiveSetter,
		Enumerable:   true,
		Configurable: true,
	})
}

// dependArray registers the active target on every observed element of arr,
// recursing into nested arrays. Index reads cannot be intercepted, so this
// runs whenever the array itself is read through a binding.
func dependArray(arr *Array) {
	for _, e := range arr.items {
		if ob := observerOf(e); ob != nil {
			ob.dep.Depend()
		}
		if inner, ok := e.(*Array); ok {
			dependArray(inner)
		}
	}
}
