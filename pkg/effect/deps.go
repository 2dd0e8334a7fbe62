package effect

import "github.com/vango-dev/observer/pkg/observer"

// depSet tracks the deps of one subscriber across evaluations.
// deps is the set from the last completed evaluation; newDeps is being
// collected by the current one.
type depSet struct {
	deps      []*observer.Dep
	depIDs    map[uint64]struct{}
	newDeps   []*observer.Dep
	newDepIDs map[uint64]struct{}
}

// add records d for the current evaluation and reports whether it was new
// to the previous one.
func (s *depSet) add(d *observer.Dep) bool {
	if s.newDepIDs == nil {
		s.newDepIDs = make(map[uint64]struct{})
	}
	id := d.ID()
	if _, ok := s.newDepIDs[id]; ok {
		return false
	}
	s.newDepIDs[id] = struct{}{}
	s.newDeps = append(s.newDeps, d)
	_, known := s.depIDs[id]
	return !known
}

// swap makes the collected set current and unsubscribes sub from every dep
// that was not read this time.
func (s *depSet) swap(sub observer.Subscriber) {
	for _, d := range s.deps {
		if _, ok := s.newDepIDs[d.ID()]; !ok {
			d.RemoveSub(sub)
		}
	}
	s.deps, s.newDeps = s.newDeps, s.deps[:0]
	s.depIDs, s.newDepIDs = s.newDepIDs, s.depIDs
	clear(s.newDepIDs)
}

// release unsubscribes sub from every current dep.
func (s *depSet) release(sub observer.Subscriber) {
	for _, d := range s.deps {
		d.RemoveSub(sub)
	}
	s.deps = nil
	s.depIDs = nil
	s.newDeps = nil
	s.newDepIDs = nil
}

func (s *depSet) list() []*observer.Dep {
	out := make([]*observer.Dep, len(s.deps))
	copy(out, s.deps)
	return out
}
