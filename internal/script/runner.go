package script

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/observer/internal/errors"
	"github.com/vango-dev/observer/pkg/document"
	"github.com/vango-dev/observer/pkg/effect"
	"github.com/vango-dev/observer/pkg/observer"
)

// StepResult reports the effect of one step.
type StepResult struct {
	Index int
	Op    Op
	Path  string

	// Triggered lists the watchers that re-ran, in watch order.
	Triggered []string

	// Warnings lists the warning codes reported during the step.
	Warnings []string

	// Return is the value returned by array operations.
	Return any
}

// Result is the outcome of a run.
type Result struct {
	Root  any
	Steps []StepResult

	// Values holds the last values each watcher read, by name, in path
	// order. Unresolvable paths read as nil.
	Values map[string][]any
}

// Options configures Run.
type Options struct {
	// S3 is the client for s3:// sources. Nil disables them.
	S3 document.S3API

	// Logger receives one record per step. Default: slog.Default().
	Logger *slog.Logger
}

// Runner executes scripts. It implements observer.Hooks to attribute
// warnings to steps; install it with observer.SetHooks or MultiHooks for
// the duration of Run.
type Runner struct {
	observer.NopHooks

	opts Options

	mu       sync.Mutex
	warnings []string
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{opts: opts}
}

// Warned implements observer.Hooks.
func (r *Runner) Warned(err error) {
	r.mu.Lock()
	r.warnings = append(r.warnings, errors.Code(err))
	r.mu.Unlock()
}

func (r *Runner) takeWarnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.warnings
	r.warnings = nil
	return w
}

// watcher is one running Watch.
type watcher struct {
	name   string
	effect *effect.Effect
	values []any
}

// Run loads the initial document, starts the watchers and executes every
// step. It stops at the first failing step, returning the results so far.
// Observation is re-enabled when Run returns.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	root, err := r.load(ctx, s)
	if err != nil {
		return nil, err
	}
	observer.Observe(root, s.IsRoot())
	defer observer.ToggleObserving(true)

	watchers := make([]*watcher, 0, len(s.Watch))
	for _, w := range s.Watch {
		wt := &watcher{name: w.Name}
		wt.effect = effect.NewEffect(func() effect.Cleanup {
			// keys added to or removed from the root re-run every watcher
			if ob := observer.ObserverOf(root); ob != nil {
				ob.Dep().Depend()
			}
			wt.values = wt.values[:0]
			for _, p := range w.Paths {
				v, _ := document.Get(root, p)
				wt.values = append(wt.values, v)
			}
			return nil
		}, effect.WithName(w.Name))
		watchers = append(watchers, wt)
	}
	defer func() {
		for _, wt := range watchers {
			wt.effect.Stop()
		}
	}()

	res := &Result{Root: root}
	r.takeWarnings()

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		before := make([]int, len(watchers))
		for j, wt := range watchers {
			before[j] = wt.effect.Runs()
		}

		ret, err := r.apply(root, st)
		sr := StepResult{
			Index:    i,
			Op:       st.Op,
			Path:     st.Path,
			Warnings: r.takeWarnings(),
			Return:   ret,
		}
		for j, wt := range watchers {
			if wt.effect.Runs() != before[j] {
				sr.Triggered = append(sr.Triggered, wt.name)
			}
		}
		res.Steps = append(res.Steps, sr)

		r.opts.Logger.Debug("script step",
			"index", i,
			"op", string(st.Op),
			"path", st.Path,
			"triggered", sr.Triggered,
			"warnings", sr.Warnings,
		)

		if err != nil {
			return res, err
		}
		if err := check(i, st, sr); err != nil {
			return res, err
		}
	}

	res.Values = make(map[string][]any, len(watchers))
	for _, wt := range watchers {
		res.Values[wt.name] = slices.Clone(wt.values)
	}
	return res, nil
}

func (r *Runner) load(ctx context.Context, s *Script) (any, error) {
	var root any
	var err error
	if s.Source != "" {
		root, err = document.Load(ctx, s.Source, r.opts.S3)
	} else {
		root, err = document.DecodeNode(&s.State)
	}
	if err != nil {
		return nil, errors.New("E101").WithDetail(s.Source).Wrap(err)
	}

	switch root.(type) {
	case *observer.Object, *observer.Array:
		return root, nil
	}
	return nil, errors.New("E101").WithDetailf("state must be a mapping or a sequence, got %T", root)
}

func (r *Runner) apply(root any, st Step) (any, error) {
	switch st.Op {
	case OpToggleObserving:
		observer.ToggleObserving(*st.Enabled)
		return nil, nil

	case OpAssign, OpSet, OpDelete:
		container, key, err := document.Resolve(root, st.Path)
		if err != nil {
			return nil, errors.New("E103").WithDetail(st.Path).Wrap(err)
		}
		switch st.Op {
		case OpAssign:
			v, err := decodeValue(&st.Value)
			if err != nil {
				return nil, stepError(st, err)
			}
			if err := assign(container, key, v); err != nil {
				return nil, errors.New("E103").WithDetail(st.Path).Wrap(err)
			}
		case OpSet:
			v, err := decodeValue(&st.Value)
			if err != nil {
				return nil, stepError(st, err)
			}
			observer.Set(container, key, v)
		case OpDelete:
			observer.Del(container, key)
		}
		return nil, nil
	}

	target, err := document.Get(root, st.Path)
	if err != nil {
		return nil, errors.New("E103").WithDetail(st.Path).Wrap(err)
	}
	arr, ok := target.(*observer.Array)
	if !ok {
		return nil, stepError(st, fmt.Errorf("%s is %T, not an array", st.Path, target))
	}

	values := make([]any, 0, len(st.Values))
	for i := range st.Values {
		v, err := decodeValue(&st.Values[i])
		if err != nil {
			return nil, stepError(st, err)
		}
		values = append(values, v)
	}

	switch st.Op {
	case OpPush:
		return arr.Push(values...), nil
	case OpPop:
		return arr.Pop(), nil
	case OpShift:
		return arr.Shift(), nil
	case OpUnshift:
		return arr.Unshift(values...), nil
	case OpSplice:
		deleteCount := arr.Len()
		if st.DeleteCount != nil {
			deleteCount = *st.DeleteCount
		}
		return arr.Splice(st.Start, deleteCount, values...), nil
	case OpSort:
		arr.Sort(compare(st.Descending))
		return nil, nil
	case OpReverse:
		arr.Reverse()
		return nil, nil
	}
	return nil, stepError(st, fmt.Errorf("unknown op %q", st.Op))
}

// assign writes through the property, as a plain assignment would.
// Array indices are written directly and are not observable.
func assign(container any, key string, v any) error {
	switch c := container.(type) {
	case *observer.Object:
		c.Set(key, v)
	case *observer.Array:
		i, err := strconv.Atoi(key)
		if err != nil || !observer.IsValidArrayIndex(i) {
			return fmt.Errorf("invalid array index %q", key)
		}
		c.SetIndex(i, v)
	}
	return nil
}

func decodeValue(n *yaml.Node) (any, error) {
	return document.DecodeNode(n)
}

// compare orders numbers numerically and everything else by string form.
func compare(descending bool) func(x, y any) int {
	return func(x, y any) int {
		c := compareValues(x, y)
		if descending {
			return -c
		}
		return c
	}
}

func compareValues(x, y any) int {
	fx, okx := toFloat(x)
	fy, oky := toFloat(y)
	if okx && oky {
		switch {
		case fx < fy:
			return -1
		case fx > fy:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(x), fmt.Sprint(y))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func check(i int, st Step, sr StepResult) error {
	if st.Expect != nil && !sameSet(st.Expect, sr.Triggered) {
		return errors.New("E102").
			WithDetailf("step %d (%s %s): expected %v to re-run, got %v", i, st.Op, st.Path, st.Expect, sr.Triggered)
	}
	if st.Warnings != nil && !sameSet(st.Warnings, sr.Warnings) {
		return errors.New("E102").
			WithDetailf("step %d (%s %s): expected warnings %v, got %v", i, st.Op, st.Path, st.Warnings, sr.Warnings)
	}
	return nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	sort.Strings(x)
	sort.Strings(y)
	return slices.Equal(x, y)
}

func stepError(st Step, err error) error {
	return errors.New("E102").WithDetailf("%s %s", st.Op, st.Path).Wrap(err)
}
