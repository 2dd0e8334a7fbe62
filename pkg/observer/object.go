package observer

import (
	"fmt"
	"sort"
	"strings"
)

// Descriptor describes one property slot of an Object.
//
// A slot is either a data property (Value, Writable) or an accessor property
// (Get, Set). As with Object.defineProperty in the source runtime, the
// boolean attributes default to false.
type Descriptor struct {
	Value any
	Get   func() any
	Set   func(any)

	Writable     bool
	Enumerable   bool
	Configurable bool
}

// IsAccessor reports whether the descriptor has a getter or a setter.
func (d Descriptor) IsAccessor() bool {
	return d.Get != nil || d.Set != nil
}

// Object is a mutable string-keyed record whose reads and writes go through
// accessor methods, so they can be intercepted once the object is observed.
//
// Keys keep insertion order. The observer marker is held out of band and is
// never listed by Keys or Entries.
type Object struct {
	keys  []string
	props map[string]*Descriptor

	// proto is consulted by Get, Has and Set for keys that are not own.
	proto *Object

	nonExtensible bool

	// managed flags an opaque instance that manages its own observation.
	managed bool

	// vnode flags a virtual-node value of a rendering layer.
	vnode bool

	// ob is the Observer that instruments this object, if any.
	ob *Observer
}

// NewObject creates an empty, extensible object.
func NewObject() *Object {
	return &Object{props: make(map[string]*Descriptor)}
}

// NewObjectWithProto creates an empty object that inherits from proto.
func NewObjectWithProto(proto *Object) *Object {
	o := NewObject()
	o.proto = proto
	return o
}

// NewManagedObject creates an opaque managed instance. Observe never
// instruments it and Set/Del refuse to add or remove its keys.
func NewManagedObject() *Object {
	o := NewObject()
	o.managed = true
	return o
}

// NewVNodeObject creates an object that represents a virtual node. VNodes
// are transient render intermediates and Observe never instruments them.
func NewVNodeObject() *Object {
	o := NewObject()
	o.vnode = true
	return o
}

// FromMap creates an object with the entries of m, in sorted key order.
func FromMap(m map[string]any) *Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	o := NewObject()
	for _, k := range keys {
		o.Set(k, m[k])
	}
	return o
}

// IsManaged reports whether o is an opaque managed instance.
func (o *Object) IsManaged() bool {
	return o.managed
}

// IsVNode reports whether o represents a virtual node.
func (o *Object) IsVNode() bool {
	return o != nil && o.vnode
}

// Proto returns the prototype, or nil.
func (o *Object) Proto() *Object {
	return o.proto
}

// Get returns the value of key, reading through getters and the prototype
// chain. Missing keys read as nil.
func (o *Object) Get(key string) any {
	for cur := o; cur != nil; cur = cur.proto {
		if d, ok := cur.props[key]; ok {
			if d.Get != nil {
				return d.Get()
			}
			if d.Set != nil {
				return nil
			}
			return d.Value
		}
	}
	return nil
}

// Set assigns key. Own setters are called; getter-only and read-only slots
// drop the write. A missing key becomes a new enumerable, writable,
// configurable own property unless the object is not extensible or an
// inherited slot forbids it.
func (o *Object) Set(key string, value any) {
	if d, ok := o.props[key]; ok {
		assign(d, value)
		return
	}

	for cur := o.proto; cur != nil; cur = cur.proto {
		if d, ok := cur.props[key]; ok {
			if d.IsAccessor() {
				if d.Set != nil {
					d.Set(value)
				}
				return
			}
			if !d.Writable {
				return
			}
			break
		}
	}

	if o.nonExtensible {
		return
	}
	o.keys = append(o.keys, key)
	o.props[key] = &Descriptor{
		Value:        value,
		Writable:     true,
		Enumerable:   true,
		Configurable: true,
	}
}

func assign(d *Descriptor, value any) {
	switch {
	case d.Set != nil:
		d.Set(value)
	case d.Get != nil:
		// getter without setter: read-only
	case d.Writable:
		d.Value = value
	}
}

// HasOwn reports whether key is an own property of o.
func (o *Object) HasOwn(key string) bool {
	_, ok := o.props[key]
	return ok
}

// Has reports whether key is an own or inherited property of o.
func (o *Object) Has(key string) bool {
	for cur := o; cur != nil; cur = cur.proto {
		if _, ok := cur.props[key]; ok {
			return true
		}
	}
	return false
}

// Keys returns the enumerable own keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.keys))
	for _, k := range o.keys {
		if o.props[k].Enumerable {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len returns the number of enumerable own keys.
func (o *Object) Len() int {
	n := 0
	for _, k := range o.keys {
		if o.props[k].Enumerable {
			n++
		}
	}
	return n
}

// Entry is one key/value pair of an Object.
type Entry struct {
	Key   string
	Value any
}

// Entries returns the enumerable own entries in insertion order.
// Values are read through Get, so the reads are tracked.
func (o *Object) Entries() []Entry {
	keys := o.Keys()
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{Key: k, Value: o.Get(k)}
	}
	return entries
}

// GetOwnPropertyDescriptor returns a copy of the own slot for key.
func (o *Object) GetOwnPropertyDescriptor(key string) (Descriptor, bool) {
	d, ok := o.props[key]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// DefineProperty installs or replaces the own slot for key.
// It returns false, leaving o unchanged, when the existing slot is not
// configurable or when key is new and o is not extensible.
func (o *Object) DefineProperty(key string, d Descriptor) bool {
	if existing, ok := o.props[key]; ok {
		if !existing.Configurable {
			return false
		}
		*existing = d
		return true
	}
	if o.nonExtensible {
		return false
	}
	o.keys = append(o.keys, key)
	o.props[key] = &d
	return true
}

// Delete removes the own property key. It returns false only when the
// property exists and is not configurable.
func (o *Object) Delete(key string) bool {
	d, ok := o.props[key]
	if !ok {
		return true
	}
	if !d.Configurable {
		return false
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// PreventExtensions stops new own properties from being added.
func (o *Object) PreventExtensions() {
	o.nonExtensible = true
}

// IsExtensible reports whether new own properties may be added.
func (o *Object) IsExtensible() bool {
	return !o.nonExtensible
}

// Freeze makes o non-extensible and every own slot non-configurable.
// Data properties also become read-only.
func (o *Object) Freeze() {
	o.nonExtensible = true
	for _, d := range o.props {
		d.Configurable = false
		if !d.IsAccessor() {
			d.Writable = false
		}
	}
}

// String renders the enumerable own entries without tracking reads.
func (o *Object) String() string {
	var b strings.Builder
	Untracked(func() {
		writeValue(&b, o, map[any]bool{})
	})
	return b.String()
}

// writeValue formats v, printing containers already on the current path as
// "[Circular]".
func writeValue(b *strings.Builder, v any, seen map[any]bool) {
	switch c := v.(type) {
	case *Object:
		if c == nil {
			b.WriteString("<nil>")
			return
		}
		if seen[c] {
			b.WriteString("[Circular]")
			return
		}
		seen[c] = true
		defer delete(seen, c)
		b.WriteString("{")
		for i, e := range c.Entries() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.Key)
			b.WriteString(": ")
			writeValue(b, e.Value, seen)
		}
		b.WriteString("}")
	case *Array:
		if c == nil {
			b.WriteString("<nil>")
			return
		}
		if seen[c] {
			b.WriteString("[Circular]")
			return
		}
		seen[c] = true
		defer delete(seen, c)
		b.WriteString("[")
		for i, item := range c.items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item, seen)
		}
		b.WriteString("]")
	default:
		fmt.Fprintf(b, "%v", v)
	}
}
