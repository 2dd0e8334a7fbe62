package observer

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// nativeArrayMethods holds the uninstrumented behavior of every mutating
// method. Unobserved arrays resolve to these.
var nativeArrayMethods = methodTable{
	MethodPush:    nativePush,
	MethodPop:     nativePop,
	MethodShift:   nativeShift,
	MethodUnshift: nativeUnshift,
	MethodSplice:  nativeSplice,
	MethodSort:    nativeSort,
	MethodReverse: nativeReverse,
}

// arrayMethods is the interceptor table installed on observed arrays.
// It is built once and shared. The interceptors reach newObserver, which
// reads this table, so it is filled in init rather than by initializer.
var arrayMethods methodTable

func init() {
	arrayMethods = buildArrayMethods()
}

func buildArrayMethods() methodTable {
	table := make(methodTable, len(mutatingMethods))
	for _, method := range mutatingMethods {
		table[method] = intercept(method, nativeArrayMethods[method])
	}
	return table
}

// intercept wraps original so that the array's contents change first, newly
// inserted elements are observed, and the array's container dep notifies.
// The native result is returned unchanged.
func intercept(method ArrayMethod, original mutator) mutator {
	return func(a *Array, args []any) any {
		result := original(a, args)

		ob := a.ob
		if ob == nil {
			return result
		}

		var inserted []any
		switch method {
		case MethodPush, MethodUnshift:
			inserted = args
		case MethodSplice:
			if len(args) > 2 {
				inserted = args[2:]
			}
		}
		if len(inserted) > 0 {
			ob.ObserveArray(inserted)
		}

		ob.dep.Notify()
		return result
	}
}

// protoAugment points the array's shared method chain at table.
func protoAugment(a *Array, table methodTable) {
	a.proto = table
}

// copyAugment copies the methods named by keys onto the array instance.
func copyAugment(a *Array, table methodTable, keys []ArrayMethod) {
	if a.own == nil {
		a.own = make(methodTable, len(keys))
	}
	for _, key := range keys {
		a.own[key] = table[key]
	}
}

func nativePush(a *Array, args []any) any {
	a.items = append(a.items, args...)
	return len(a.items)
}

func nativePop(a *Array, _ []any) any {
	n := len(a.items)
	if n == 0 {
		return nil
	}
	last := a.items[n-1]
	a.items[n-1] = nil
	a.items = a.items[:n-1]
	return last
}

func nativeShift(a *Array, _ []any) any {
	if len(a.items) == 0 {
		return nil
	}
	first := a.items[0]
	a.items = slices.Delete(a.items, 0, 1)
	return first
}

func nativeUnshift(a *Array, args []any) any {
	a.items = slices.Insert(a.items, 0, args...)
	return len(a.items)
}

func nativeSplice(a *Array, args []any) any {
	n := len(a.items)
	if len(args) == 0 {
		return []any{}
	}

	startArg, _ := toInt(args[0])
	start := clampIndex(startArg, n)

	deleteCount := n - start
	if len(args) > 1 {
		dc, _ := toInt(args[1])
		deleteCount = min(max(dc, 0), n-start)
	}

	var inserted []any
	if len(args) > 2 {
		inserted = args[2:]
	}

	removed := slices.Clone(a.items[start : start+deleteCount])
	a.items = slices.Replace(a.items, start, start+deleteCount, inserted...)
	if removed == nil {
		removed = []any{}
	}
	return removed
}

func nativeSort(a *Array, args []any) any {
	var cmp func(x, y any) int
	if len(args) > 0 {
		cmp, _ = args[0].(func(x, y any) int)
	}
	if cmp == nil {
		cmp = defaultCompare
	}
	slices.SortStableFunc(a.items, func(x, y any) int {
		// nil sorts last and is never passed to cmp
		switch {
		case x == nil && y == nil:
			return 0
		case x == nil:
			return 1
		case y == nil:
			return -1
		}
		return cmp(x, y)
	})
	return a
}

func nativeReverse(a *Array, _ []any) any {
	slices.Reverse(a.items)
	return a
}

// defaultCompare orders values by their string form.
func defaultCompare(x, y any) int {
	return strings.Compare(fmt.Sprint(x), fmt.Sprint(y))
}

// toInt converts integral numeric values to int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case float32:
		return toInt(float64(n))
	}
	return 0, false
}
