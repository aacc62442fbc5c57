package sanitizer

import "strings"

// IsOperatorKey reports whether key would be read as a query operator or a
// nested path by a document store.
func IsOperatorKey(key string) bool {
	return strings.HasPrefix(key, "$") || strings.Contains(key, ".")
}

// Document returns a copy of doc without operator keys at any depth. String
// values, including those inside nested maps and slices, are passed through
// fn when it is not nil. Non-string scalars are kept as they are.
func Document(doc map[string]any, fn func(string) string) map[string]any {
	if doc == nil {
		return nil
	}

	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if IsOperatorKey(k) {
			continue
		}
		out[k] = sanitizeValue(v, fn)
	}
	return out
}

func sanitizeValue(v any, fn func(string) string) any {
	switch t := v.(type) {
	case string:
		if fn != nil {
			return fn(t)
		}
		return t
	case map[string]any:
		return Document(t, fn)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = sanitizeValue(item, fn)
		}
		return out
	default:
		return v
	}
}
