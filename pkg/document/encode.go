package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/observer/pkg/observer"
)

// Encode serializes v in format.
func Encode(v any, format Format) ([]byte, error) {
	if format == YAML {
		return EncodeYAML(v)
	}
	return EncodeJSON(v)
}

// EncodeJSON serializes v as indented JSON, keeping object key order.
// Reads do not register dependencies.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	observer.Untracked(func() {
		err = writeJSON(&buf, v, make(map[any]bool))
	})
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any, seen map[any]bool) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case *observer.Object:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		if seen[t] {
			return fmt.Errorf("document: cycle at %p", t)
		}
		seen[t] = true
		defer delete(seen, t)

		buf.WriteByte('{')
		for i, key := range t.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, _ := json.Marshal(key)
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeJSON(buf, t.Get(key), seen); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case *observer.Array:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		if seen[t] {
			return fmt.Errorf("document: cycle at %p", t)
		}
		seen[t] = true
		defer delete(seen, t)

		buf.WriteByte('[')
		for i, item := range t.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item, seen); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			buf.WriteString("null")
			return nil
		}
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			buf.WriteString("null")
			return nil
		}
	}

	if reflect.ValueOf(v).Kind() == reflect.Func {
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	buf.Write(data)
	return nil
}

// EncodeYAML serializes v as YAML, keeping mapping key order.
// Reads do not register dependencies.
func EncodeYAML(v any) ([]byte, error) {
	var node *yaml.Node
	var err error
	observer.Untracked(func() {
		node, err = yamlNode(v, make(map[any]bool))
	})
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

func yamlNode(v any, seen map[any]bool) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *observer.Object:
		if t == nil {
			return yamlNode(nil, seen)
		}
		if seen[t] {
			return nil, fmt.Errorf("document: cycle at %p", t)
		}
		seen[t] = true
		defer delete(seen, t)

		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range t.Keys() {
			val, err := yamlNode(t.Get(key), seen)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				val,
			)
		}
		return n, nil
	case *observer.Array:
		if t == nil {
			return yamlNode(nil, seen)
		}
		if seen[t] {
			return nil, fmt.Errorf("document: cycle at %p", t)
		}
		seen[t] = true
		defer delete(seen, t)

		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t.Items() {
			val, err := yamlNode(item, seen)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, val)
		}
		return n, nil
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: t.Format(time.RFC3339Nano)}, nil
	}

	if reflect.ValueOf(v).Kind() == reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return &n, nil
}
