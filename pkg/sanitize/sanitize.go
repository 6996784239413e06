package sanitize

import (
	"errors"
	"reflect"
	"strings"
)

// Marker replaces the value of every field whose key matches the denylist.
const Marker = "*****"

// ErrCyclicValue is returned when the input contains a reference cycle.
var ErrCyclicValue = errors.New("sanitize: cyclic value")

var denylist = []string{"password", "token", "apikey", "jwtsecret", "authorization"}

// Sanitize returns a deep copy of v with sensitive fields redacted. A field is
// sensitive when its key case-insensitively contains one of: password, token,
// apikey, jwtsecret, authorization. The input is never mutated. nil and scalar
// values pass through unchanged. Values containing a reference cycle yield
// ErrCyclicValue.
func Sanitize(v any) (any, error) {
	return walk(v, make(map[uintptr]struct{}))
}

func walk(v any, seen map[uintptr]struct{}) (any, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		id := reflect.ValueOf(value).Pointer()
		if _, ok := seen[id]; ok {
			return nil, ErrCyclicValue
		}
		seen[id] = struct{}{}
		out := make(map[string]any, len(value))
		for key, item := range value {
			if Sensitive(key) {
				out[key] = Marker
				continue
			}
			copied, err := walk(item, seen)
			if err != nil {
				return nil, err
			}
			out[key] = copied
		}
		delete(seen, id)
		return out, nil
	case []any:
		if len(value) == 0 {
			return []any{}, nil
		}
		id := reflect.ValueOf(value).Pointer()
		if _, ok := seen[id]; ok {
			return nil, ErrCyclicValue
		}
		seen[id] = struct{}{}
		out := make([]any, len(value))
		for i, item := range value {
			copied, err := walk(item, seen)
			if err != nil {
				return nil, err
			}
			out[i] = copied
		}
		delete(seen, id)
		return out, nil
	default:
		return value, nil
	}
}

// Sensitive reports whether a field key matches the redaction denylist.
func Sensitive(key string) bool {
	lowered := strings.ToLower(key)
	for _, needle := range denylist {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}
