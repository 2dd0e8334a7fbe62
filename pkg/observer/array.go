package observer

import (
	"slices"
	"strings"
)

// ArrayMethod names one of the mutating array operations.
type ArrayMethod string

const (
	MethodPush    ArrayMethod = "push"
	MethodPop     ArrayMethod = "pop"
	MethodShift   ArrayMethod = "shift"
	MethodUnshift ArrayMethod = "unshift"
	MethodSplice  ArrayMethod = "splice"
	MethodSort    ArrayMethod = "sort"
	MethodReverse ArrayMethod = "reverse"
)

// mutatingMethods lists the operations that change an array's structure.
var mutatingMethods = []ArrayMethod{
	MethodPush,
	MethodPop,
	MethodShift,
	MethodUnshift,
	MethodSplice,
	MethodSort,
	MethodReverse,
}

// mutator implements one array method. It receives the raw call arguments
// and returns the method's result.
type mutator func(a *Array, args []any) any

// methodTable maps method names to implementations.
type methodTable map[ArrayMethod]mutator

// Array is an ordered list of values whose structural mutations go through
// a method table, so they can be intercepted once the array is observed.
//
// Index reads and writes (Index, SetIndex, SetLength) bypass the table and
// are not observable. Use Set and Del for reactive index replacement.
type Array struct {
	items []any

	// own holds per-instance method overrides.
	own methodTable

	// proto is the shared method table consulted after own.
	proto methodTable

	nonExtensible bool

	// ob is the Observer that instruments this array, if any.
	ob *Observer
}

// NewArray creates an array holding items.
func NewArray(items ...any) *Array {
	return &Array{items: slices.Clone(items)}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.items)
}

// Index returns the element at i, or nil when i is out of range.
func (a *Array) Index(i int) any {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Items returns a copy of the elements.
func (a *Array) Items() []any {
	return slices.Clone(a.items)
}

// Slice returns a copy of the elements in [start, end). Negative indices
// count from the end; bounds are clamped.
func (a *Array) Slice(start, end int) []any {
	n := len(a.items)
	start = clampIndex(start, n)
	end = clampIndex(end, n)
	if start >= end {
		return []any{}
	}
	return slices.Clone(a.items[start:end])
}

// IndexOf returns the first index holding v by strict equality, or -1.
// NaN is never found.
func (a *Array) IndexOf(v any) int {
	if isNaN(v) {
		return -1
	}
	for i, item := range a.items {
		if SameValue(item, v) {
			return i
		}
	}
	return -1
}

// SetIndex writes v at i, growing the array with nil when needed.
// The write is not observable. Indices outside [0, MaxArrayIndex] are
// ignored.
func (a *Array) SetIndex(i int, v any) {
	if i < 0 || uint64(i) > MaxArrayIndex {
		return
	}
	if i >= len(a.items) {
		a.SetLength(i + 1)
	}
	a.items[i] = v
}

// SetLength truncates the array or grows it with nil elements.
// The change is not observable. Lengths above MaxArrayIndex+1 are ignored.
func (a *Array) SetLength(n int) {
	if n < 0 || uint64(n) > MaxArrayIndex+1 {
		return
	}
	if n <= len(a.items) {
		clear(a.items[n:])
		a.items = a.items[:n]
		return
	}
	a.items = append(a.items, make([]any, n-len(a.items))...)
}

// PreventExtensions marks the array as not extensible. Non-extensible arrays
// are not eligible for observation.
func (a *Array) PreventExtensions() {
	a.nonExtensible = true
}

// IsExtensible reports whether the array is extensible.
func (a *Array) IsExtensible() bool {
	return !a.nonExtensible
}

// lookup resolves a method: own table, then the shared table, then native.
func (a *Array) lookup(m ArrayMethod) mutator {
	if fn, ok := a.own[m]; ok {
		return fn
	}
	if fn, ok := a.proto[m]; ok {
		return fn
	}
	return nativeArrayMethods[m]
}

// Call invokes a mutating method by name through the method table.
func (a *Array) Call(m ArrayMethod, args ...any) any {
	fn := a.lookup(m)
	if fn == nil {
		return nil
	}
	return fn(a, args)
}

// Push appends items and returns the new length.
func (a *Array) Push(items ...any) int {
	return a.Call(MethodPush, items...).(int)
}

// Pop removes and returns the last element, or nil when empty.
func (a *Array) Pop() any {
	return a.Call(MethodPop)
}

// Shift removes and returns the first element, or nil when empty.
func (a *Array) Shift() any {
	return a.Call(MethodShift)
}

// Unshift prepends items and returns the new length.
func (a *Array) Unshift(items ...any) int {
	return a.Call(MethodUnshift, items...).(int)
}

// Splice removes deleteCount elements at start, inserts items in their
// place and returns the removed elements. A negative start counts from the
// end.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	args := make([]any, 0, len(items)+2)
	args = append(args, start, deleteCount)
	args = append(args, items...)
	return a.Call(MethodSplice, args...).([]any)
}

// Sort sorts the array in place with cmp and returns it. A nil cmp orders
// elements by their string form, with nil elements last.
func (a *Array) Sort(cmp func(x, y any) int) *Array {
	if cmp == nil {
		return a.Call(MethodSort).(*Array)
	}
	return a.Call(MethodSort, cmp).(*Array)
}

// Reverse reverses the array in place and returns it.
func (a *Array) Reverse() *Array {
	return a.Call(MethodReverse).(*Array)
}

// String renders the elements.
func (a *Array) String() string {
	var b strings.Builder
	Untracked(func() {
		writeValue(&b, a, map[any]bool{})
	})
	return b.String()
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}
