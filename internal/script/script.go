package script

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/observer/internal/errors"
)

// Op names a script operation.
type Op string

const (
	OpAssign          Op = "assign"
	OpSet             Op = "set"
	OpDelete          Op = "delete"
	OpPush            Op = "push"
	OpPop             Op = "pop"
	OpShift           Op = "shift"
	OpUnshift         Op = "unshift"
	OpSplice          Op = "splice"
	OpSort            Op = "sort"
	OpReverse         Op = "reverse"
	OpToggleObserving Op = "toggle-observing"
)

// Script is a parsed script file.
type Script struct {
	// State is the inline initial document.
	State yaml.Node `yaml:"state"`

	// Source loads the initial document instead of State: a file path or
	// an s3://bucket/key URL.
	Source string `yaml:"source,omitempty"`

	// Root observes the document as root data, so Set and Del refuse to add
	// or remove its top-level keys. Default: true.
	Root *bool `yaml:"root,omitempty"`

	Watch []Watch `yaml:"watch"`
	Steps []Step  `yaml:"steps"`
}

// Watch defines a watcher reading Paths.
type Watch struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

// Step is one mutation.
type Step struct {
	Op   Op     `yaml:"op"`
	Path string `yaml:"path,omitempty"`

	// Value is the value for assign and set.
	Value yaml.Node `yaml:"value,omitempty"`

	// Values are the items for push, unshift and splice.
	Values []yaml.Node `yaml:"values,omitempty"`

	// Start and DeleteCount are the splice arguments. A nil DeleteCount
	// removes everything from Start.
	Start       int  `yaml:"start,omitempty"`
	DeleteCount *int `yaml:"deleteCount,omitempty"`

	// Descending sorts in reverse order.
	Descending bool `yaml:"descending,omitempty"`

	// Enabled is the toggle-observing argument.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Expect lists the watchers that must re-run. Nil skips the check;
	// an empty list asserts that none re-ran.
	Expect []string `yaml:"expect,omitempty"`

	// Warnings lists the warning codes the step must report. Nil skips the
	// check.
	Warnings []string `yaml:"warnings,omitempty"`
}

// Parse decodes a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.New("E102").
			WithDetail("Failed to parse script: " + err.Error())
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseFile reads and decodes a script file.
func ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E102").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}
	return Parse(data)
}

// IsRoot reports whether the document is observed as root data.
func (s *Script) IsRoot() bool {
	return s.Root == nil || *s.Root
}

func (s *Script) validate() error {
	names := make(map[string]bool, len(s.Watch))
	for i, w := range s.Watch {
		if w.Name == "" {
			return errors.New("E102").WithDetailf("watch %d has no name", i)
		}
		if names[w.Name] {
			return errors.New("E102").WithDetailf("duplicate watch %q", w.Name)
		}
		names[w.Name] = true
	}

	for i, st := range s.Steps {
		switch st.Op {
		case OpToggleObserving:
			if st.Enabled == nil {
				return errors.New("E102").WithDetailf("step %d: toggle-observing needs enabled", i)
			}
		case OpAssign, OpSet, OpDelete, OpPush, OpPop, OpShift, OpUnshift, OpSplice, OpSort, OpReverse:
			if st.Path == "" {
				return errors.New("E102").WithDetailf("step %d: %s needs a path", i, st.Op)
			}
		default:
			return errors.New("E102").
				WithDetailf("step %d: unknown op %q", i, st.Op).
				WithSuggestion("Use one of: assign, set, delete, push, pop, shift, unshift, splice, sort, reverse, toggle-observing")
		}
		for _, name := range st.Expect {
			if !names[name] {
				return errors.New("E102").WithDetailf("step %d: expects unknown watch %q", i, name)
			}
		}
	}
	return nil
}
