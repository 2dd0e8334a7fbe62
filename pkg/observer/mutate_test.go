package observer

import (
	"math"
	"slices"
	"testing"
)

func TestSetArrayIndex(t *testing.T) {
	a := NewArray(1, 2, 3)
	ob := Observe(a, false)
	sub := newTestSub()
	ob.Dep().AddSub(sub)

	if got := Set(a, 1, "x"); got != "x" {
		t.Errorf("Set returned %v", got)
	}
	if got := a.Items(); !slices.Equal(got, []any{1, "x", 3}) {
		t.Errorf("items = %v", got)
	}
	if sub.updates != 1 {
		t.Errorf("index replacement should notify once, got %d", sub.updates)
	}

	Set(a, "5", "y")
	if got := a.Items(); !slices.Equal(got, []any{1, "x", 3, nil, nil, "y"}) {
		t.Errorf("items after extension = %v", got)
	}
	if sub.updates != 2 {
		t.Errorf("expected 2 updates, got %d", sub.updates)
	}
}

func TestSetArrayObservesValue(t *testing.T) {
	a := NewArray()
	Observe(a, false)
	v := NewObject()
	Set(a, 0, v)
	if ObserverOf(v) == nil {
		t.Error("value written through Set should be observed")
	}
}

func TestSetArrayInvalidIndex(t *testing.T) {
	a := NewArray(1)
	for _, key := range []any{-1, 1.5, "name", nil} {
		Set(a, key, "x")
	}
	if got := a.Items(); !slices.Equal(got, []any{1}) {
		t.Errorf("invalid indices should be ignored, got %v", got)
	}
}

func TestSetExistingKey(t *testing.T) {
	o := observedObject("a", 1)
	sub := newTestSub()
	track(sub, func() { o.Get("a") })

	Set(o, "a", 2)

	if o.Get("a") != 2 || sub.updates != 1 {
		t.Errorf("existing key should be assigned through its binding, updates=%d", sub.updates)
	}
}

func TestSetNewKeyIsReactive(t *testing.T) {
	o := observedObject("a", 1)
	ob := ObserverOf(o)

	container := newTestSub()
	ob.Dep().AddSub(container)

	child := NewObject()
	Set(o, "b", child)

	if container.updates != 1 {
		t.Errorf("adding a key should notify the container, got %d", container.updates)
	}
	if ObserverOf(child) == nil {
		t.Error("new value should be observed")
	}

	reader := newTestSub()
	track(reader, func() { o.Get("b") })
	Set(o, "b", 3)
	if reader.updates != 1 {
		t.Errorf("new key should be reactive, got %d", reader.updates)
	}
}

func TestSetOnUnobservedObject(t *testing.T) {
	o := NewObject()
	Set(o, "a", 1)
	if o.Get("a") != 1 {
		t.Error("unobserved object should receive a plain assignment")
	}
	if d, _ := o.GetOwnPropertyDescriptor("a"); d.IsAccessor() {
		t.Error("unobserved object should not get a reactive binding")
	}
}

func TestSetInheritedKeyAssigns(t *testing.T) {
	proto := NewObject()
	proto.Set("inherited", 1)
	o := NewObjectWithProto(proto)
	Observe(o, true)

	h, restore := installHooks()
	defer restore()

	Set(o, "inherited", 2)
	if len(h.warnings) != 0 {
		t.Errorf("inherited key is not a new root key, got %v", h.warnings)
	}
	if o.Get("inherited") != 2 {
		t.Errorf("Get(inherited) = %v", o.Get("inherited"))
	}
}

func TestSetRootDataRefusesNewKey(t *testing.T) {
	h, restore := installHooks()
	defer restore()

	o := NewObject()
	o.Set("existing", 1)
	Observe(o, true)

	before := o.Keys()
	Set(o, "added", 1)

	if got := o.Keys(); !slices.Equal(got, before) {
		t.Errorf("keys changed from %v to %v", before, got)
	}
	if len(h.warnings) != 1 || h.warnings[0] != "W003" {
		t.Errorf("expected W003, got %v", h.warnings)
	}

	Set(o, "existing", 2)
	if o.Get("existing") != 2 {
		t.Error("existing key on root data should still be settable")
	}
	if len(h.warnings) != 1 {
		t.Errorf("existing key should not warn, got %v", h.warnings)
	}
}

func TestSetManagedRefusesNewKey(t *testing.T) {
	h, restore := installHooks()
	defer restore()

	m := NewManagedObject()
	Set(m, "a", 1)

	if m.HasOwn("a") {
		t.Error("managed instance should not gain keys through Set")
	}
	if len(h.warnings) != 1 || h.warnings[0] != "W003" {
		t.Errorf("expected W003, got %v", h.warnings)
	}
}

func TestSetInvalidTarget(t *testing.T) {
	h, restore := installHooks()
	defer restore()

	for _, target := range []any{nil, 1, "s", (*Object)(nil), (*Array)(nil)} {
		if got := Set(target, "a", 5); got != 5 {
			t.Errorf("Set should return the value, got %v", got)
		}
	}
	if len(h.warnings) != 5 {
		t.Errorf("expected 5 warnings, got %v", h.warnings)
	}
	for _, code := range h.warnings {
		if code != "W001" {
			t.Errorf("expected W001, got %s", code)
		}
	}
}

func TestDelArrayIndex(t *testing.T) {
	a := NewArray(1, 2, 3)
	ob := Observe(a, false)
	sub := newTestSub()
	ob.Dep().AddSub(sub)

	Del(a, 1)

	if got := a.Items(); !slices.Equal(got, []any{1, 3}) {
		t.Errorf("items = %v", got)
	}
	if sub.updates != 1 {
		t.Errorf("expected 1 update, got %d", sub.updates)
	}
}

func TestDelKeyNotifiesContainer(t *testing.T) {
	o := observedObject("a", 1, "b", 2)
	container := newTestSub()
	ObserverOf(o).Dep().AddSub(container)

	Del(o, "a")

	if o.HasOwn("a") {
		t.Error("a should be deleted")
	}
	if container.updates != 1 {
		t.Errorf("expected 1 container update, got %d", container.updates)
	}

	Del(o, "missing")
	if container.updates != 1 {
		t.Error("deleting a missing key should be a no-op")
	}
}

func TestDelInheritedKeyIsNoop(t *testing.T) {
	proto := NewObject()
	proto.Set("p", 1)
	o := NewObjectWithProto(proto)
	ob := Observe(o, false)
	sub := newTestSub()
	ob.Dep().AddSub(sub)

	Del(o, "p")

	if !proto.HasOwn("p") || sub.updates != 0 {
		t.Error("inherited key should not be deleted")
	}
}

func TestDelNonConfigurableKey(t *testing.T) {
	o := NewObject()
	o.DefineProperty("fixed", Descriptor{Value: 1, Enumerable: true})
	ob := Observe(o, false)
	sub := newTestSub()
	ob.Dep().AddSub(sub)

	Del(o, "fixed")

	if !o.HasOwn("fixed") || sub.updates != 0 {
		t.Error("non-configurable key should survive without notification")
	}
}

func TestDelRootDataRefused(t *testing.T) {
	h, restore := installHooks()
	defer restore()

	o := NewObject()
	o.Set("a", 1)
	Observe(o, true)

	Del(o, "a")

	if !o.HasOwn("a") {
		t.Error("root data key should not be deleted")
	}
	if len(h.warnings) != 1 || h.warnings[0] != "W004" {
		t.Errorf("expected W004, got %v", h.warnings)
	}
}

func TestDelInvalidTarget(t *testing.T) {
	h, restore := installHooks()
	defer restore()

	Del(nil, "a")
	Del(3, "a")

	if len(h.warnings) != 2 || h.warnings[0] != "W002" {
		t.Errorf("expected two W002 warnings, got %v", h.warnings)
	}
}

func TestIsValidArrayIndex(t *testing.T) {
	tests := []struct {
		key  any
		want bool
	}{
		{0, true},
		{3, true},
		{uint8(2), true},
		{2.0, true},
		{"4", true},
		{-1, false},
		{1.5, false},
		{"x", false},
		{"-2", false},
		{"Inf", false},
		{"1e18", false},
		{uint64(MaxArrayIndex), true},
		{uint64(MaxArrayIndex) + 1, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsValidArrayIndex(tt.key); got != tt.want {
			t.Errorf("IsValidArrayIndex(%#v) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestSetArrayIndexOutOfRange(t *testing.T) {
	h, restore := installHooks()
	defer restore()

	a := NewArray(1, 2)
	ob := Observe(a, false)
	sub := newTestSub()
	ob.Dep().AddSub(sub)

	for _, key := range []any{"1e18", 1e300, uint64(math.MaxUint64), MaxArrayIndex + 1} {
		if got := Set(a, key, "x"); got != "x" {
			t.Errorf("Set(%v) returned %v", key, got)
		}
		Del(a, key)
	}

	if got := a.Items(); !slices.Equal(got, []any{1, 2}) {
		t.Errorf("items = %v", got)
	}
	if sub.updates != 0 {
		t.Errorf("out-of-range index should not notify, got %d", sub.updates)
	}
	if len(h.warnings) != 8 {
		t.Fatalf("warnings = %v, want 8", h.warnings)
	}
	for _, code := range h.warnings {
		if code != "W006" {
			t.Errorf("warning code = %s, want W006", code)
		}
	}
}
