package logcol

import (
	"fmt"
	"strings"
)

// Flatten converts a nested JSON object into a flat mapping of dot-joined
// path keys to string leaf values. Only string leaves and nested objects are
// supported; anything else fails with ErrUnsupportedValue. Keys must be
// non-empty and must not contain the delimiter.
//
// Traversal uses an explicit stack so arbitrarily deep objects cannot
// exhaust the call stack.
func Flatten(obj map[string]any) (map[string]string, error) {
	type frame struct {
		prefix string
		obj    map[string]any
	}

	flat := make(map[string]string, len(obj))
	stack := []frame{{prefix: "", obj: obj}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for k, v := range f.obj {
			if k == "" || strings.IndexByte(k, keyDelim) >= 0 {
				return nil, fmt.Errorf("%w: %q", ErrMalformedKey, f.prefix+k)
			}
			key := k
			if f.prefix != "" {
				key = f.prefix + string(keyDelim) + k
			}

			switch val := v.(type) {
			case string:
				flat[key] = val
			case map[string]any:
				stack = append(stack, frame{prefix: key, obj: val})
			default:
				return nil, fmt.Errorf("%w: field %q holds %T", ErrUnsupportedValue, key, v)
			}
		}
	}
	return flat, nil
}

// Unflatten is the exact inverse of Flatten: it splits each key on the
// delimiter and rebuilds the nested object. It fails with ErrMalformedKey
// when a path conflicts with a previously built leaf, i.e. the same prefix
// is used both as a leaf and as an inner object.
func Unflatten(flat map[string]string) (map[string]any, error) {
	obj := make(map[string]any, len(flat))

	for key, value := range flat {
		parts := strings.Split(key, string(keyDelim))
		node := obj
		for _, part := range parts[:len(parts)-1] {
			switch inner := node[part].(type) {
			case nil:
				next := make(map[string]any)
				node[part] = next
				node = next
			case map[string]any:
				node = inner
			default:
				return nil, fmt.Errorf("%w: %q is both a value and an object", ErrMalformedKey, key)
			}
		}

		leaf := parts[len(parts)-1]
		if _, ok := node[leaf]; ok {
			return nil, fmt.Errorf("%w: %q is both a value and an object", ErrMalformedKey, key)
		}
		node[leaf] = value
	}
	return obj, nil
}
