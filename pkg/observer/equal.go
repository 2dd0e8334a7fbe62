package observer

import (
	"math"
	"reflect"
)

// SameValue reports whether a write of b over a is a no-op.
// Pointers compare by identity, comparable values with ==, slices and maps
// by reference. Funcs are never the same value. Two NaNs are the same value.
// SameValue never panics.
func SameValue(a, b any) bool {
	if isNaN(a) && isNaN(b) {
		return true
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}
	if av.Comparable() && bv.Comparable() {
		return a == b
	}

	switch av.Kind() {
	case reflect.Slice:
		return av.Len() == bv.Len() && av.Pointer() == bv.Pointer()
	case reflect.Map:
		return av.Pointer() == bv.Pointer()
	}
	return false
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}
