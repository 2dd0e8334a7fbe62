package observer

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vango-dev/observer/internal/errors"
)

// Set adds or replaces a property so that the change is reactive, including
// cases the accessor mechanism cannot see. It returns value.
//
//   - *Array with a valid index: the array grows as needed and the element is
//     replaced through Splice, so readers of the array are notified.
//   - *Object with an existing key: plain assignment through the binding.
//   - *Object with a new key: a reactive binding is installed and the
//     object's container dep notifies. Refused with a warning when the object
//     is managed or is root data.
//
// Invalid targets are reported and the call is a no-op. Set never panics.
func Set(target any, key any, value any) any {
	if isUndefOrPrimitive(target) {
		warn(errors.New("W001").WithDetailf("target %s", describe(target)))
		return value
	}

	if arr, ok := target.(*Array); ok {
		idx, valid := arrayIndex(key)
		if !valid {
			warnIndexRange(key)
			return value
		}
		arr.SetLength(max(arr.Len(), idx))
		arr.Splice(idx, 1, value)
		return value
	}

	obj := target.(*Object)
	k := propertyKey(key)
	if obj.Has(k) {
		obj.Set(k, value)
		return value
	}

	ob := obj.ob
	if obj.IsManaged() || (ob != nil && ob.vmCount > 0) {
		warn(errors.New("W003").WithDetailf("key %q", k))
		return value
	}
	if ob == nil {
		obj.Set(k, value)
		return value
	}
	DefineReactive(obj, k, WithValue(value))
	ob.dep.Notify()
	return value
}

// Del removes a property so that the change is reactive.
//
//   - *Array with a valid index: the element is removed through Splice.
//   - *Object: refused with a warning when managed or root data; a key that
//     is not own is a no-op; otherwise the key is deleted and the object's
//     container dep notifies.
//
// Invalid targets are reported and the call is a no-op. Del never panics.
func Del(target any, key any) {
	if isUndefOrPrimitive(target) {
		warn(errors.New("W002").WithDetailf("target %s", describe(target)))
		return
	}

	if arr, ok := target.(*Array); ok {
		idx, valid := arrayIndex(key)
		if !valid {
			warnIndexRange(key)
			return
		}
		arr.Splice(idx, 1)
		return
	}

	obj := target.(*Object)
	k := propertyKey(key)

	ob := obj.ob
	if obj.IsManaged() || (ob != nil && ob.vmCount > 0) {
		warn(errors.New("W004").WithDetailf("key %q", k))
		return
	}
	if !obj.HasOwn(k) {
		return
	}
	if !obj.Delete(k) {
		return
	}
	if ob == nil {
		return
	}
	ob.dep.Notify()
}

// MaxArrayIndex is the largest index an array accepts.
const MaxArrayIndex = math.MaxUint32 - 1

// IsValidArrayIndex reports whether key denotes an index in
// [0, MaxArrayIndex]: an integer, an integral float or a decimal string.
func IsValidArrayIndex(key any) bool {
	_, ok := arrayIndex(key)
	return ok
}

func arrayIndex(key any) (int, bool) {
	n, ok := integralIndex(key)
	if !ok || n > MaxArrayIndex || n > math.MaxInt {
		return 0, false
	}
	return int(n), true
}

// warnIndexRange reports a key that is a whole number but too large to be
// an array index. Other non-index keys are silently ignored.
func warnIndexRange(key any) {
	if n, ok := integralIndex(key); ok && n > MaxArrayIndex {
		warn(errors.New("W006").WithDetailf("index %v", key))
	}
}

// integralIndex converts key to a non-negative whole number. Floats beyond
// the uint64 range saturate.
func integralIndex(key any) (uint64, bool) {
	switch k := key.(type) {
	case string:
		f, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return 0, false
		}
		return floatIndex(f)
	case float64:
		return floatIndex(k)
	case float32:
		return floatIndex(float64(k))
	case int:
		return signedIndex(int64(k))
	case int8:
		return signedIndex(int64(k))
	case int16:
		return signedIndex(int64(k))
	case int32:
		return signedIndex(int64(k))
	case int64:
		return signedIndex(k)
	case uint:
		return uint64(k), true
	case uint8:
		return uint64(k), true
	case uint16:
		return uint64(k), true
	case uint32:
		return uint64(k), true
	case uint64:
		return k, true
	}
	return 0, false
}

func signedIndex(n int64) (uint64, bool) {
	if n < 0 {
		return 0, false
	}
	return uint64(n), true
}

func floatIndex(f float64) (uint64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxUint64 {
		return math.MaxUint64, true
	}
	return uint64(f), true
}

// isUndefOrPrimitive reports whether target cannot hold properties.
func isUndefOrPrimitive(target any) bool {
	switch v := target.(type) {
	case *Object:
		return v == nil
	case *Array:
		return v == nil
	}
	return true
}

// propertyKey converts a key to its string form, as property keys are
// strings.
func propertyKey(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}

func describe(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v (%T)", v, v)
}
