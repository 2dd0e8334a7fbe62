package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vango-dev/observer/pkg/observer"
)

// Split breaks a path into segments. Segments are separated by dots;
// brackets are accepted for indices, so "items[2].name" and "items.2.name"
// are the same path. The empty path has no segments.
func Split(path string) []string {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	var segments []string
	for _, s := range strings.Split(path, ".") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// Get resolves path from root. Each step reads through the property
// getter, so an active subscriber depends on every step.
// The empty path yields root.
func Get(root any, path string) (any, error) {
	cur := root
	for i, seg := range Split(path) {
		next, ok := step(cur, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %q at segment %d", ErrPathNotFound, path, i)
		}
		cur = next
	}
	return cur, nil
}

// Resolve returns the container holding the last segment of path and the
// segment itself, for use with observer.Set and observer.Del.
func Resolve(root any, path string) (container any, key string, err error) {
	segments := Split(path)
	if len(segments) == 0 {
		return nil, "", fmt.Errorf("%w: empty path", ErrPathNotFound)
	}
	parent := strings.Join(segments[:len(segments)-1], ".")
	container, err = Get(root, parent)
	if err != nil {
		return nil, "", err
	}
	switch container.(type) {
	case *observer.Object, *observer.Array:
	default:
		return nil, "", fmt.Errorf("%w: %q is not a container", ErrPathNotFound, parent)
	}
	return container, segments[len(segments)-1], nil
}

func step(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case *observer.Object:
		if c == nil || !c.Has(seg) {
			return nil, false
		}
		return c.Get(seg), true
	case *observer.Array:
		if c == nil {
			return nil, false
		}
		if seg == "length" {
			return c.Len(), true
		}
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= c.Len() {
			return nil, false
		}
		return c.Index(i), true
	}
	return nil, false
}
