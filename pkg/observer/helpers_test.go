package observer

import (
	"sync"

	"github.com/vango-dev/observer/internal/errors"
)

// testSub is a minimal Subscriber that counts updates.
type testSub struct {
	id       uint64
	updates  int
	deps     []*Dep
	onUpdate func()
}

func newTestSub() *testSub {
	return &testSub{id: nextID()}
}

func (s *testSub) ID() uint64 { return s.id }

func (s *testSub) AddDep(d *Dep) {
	for _, existing := range s.deps {
		if existing == d {
			return
		}
	}
	s.deps = append(s.deps, d)
}

func (s *testSub) Update() {
	s.updates++
	if s.onUpdate != nil {
		s.onUpdate()
	}
}

// track runs fn with s as the active target.
func track(s Subscriber, fn func()) {
	WithTarget(s, fn)
}

// recordHooks captures instrumentation callbacks.
type recordHooks struct {
	mu       sync.Mutex
	created  []*Observer
	notified int
	warnings []string
}

func (h *recordHooks) ObserverCreated(ob *Observer) {
	h.mu.Lock()
	h.created = append(h.created, ob)
	h.mu.Unlock()
}

func (h *recordHooks) Notified(*Dep, int) {
	h.mu.Lock()
	h.notified++
	h.mu.Unlock()
}

func (h *recordHooks) NotifyDone(*Dep) {}

func (h *recordHooks) Warned(err error) {
	h.mu.Lock()
	h.warnings = append(h.warnings, errors.Code(err))
	h.mu.Unlock()
}

// installHooks installs a fresh recorder for the duration of a test.
func installHooks() (*recordHooks, func()) {
	h := &recordHooks{}
	SetHooks(h)
	return h, func() { SetHooks(nil) }
}
