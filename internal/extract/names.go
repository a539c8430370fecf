package extract

import "strings"

// listKeys are wrapper keys executors sometimes put around a name list.
var listKeys = []string{"institutions", "names", "results", "organizations"}

// Names coerces a discovery answer into institution names. It accepts an
// array of strings, an array of objects carrying a "name", or an object
// wrapping such an array. ok is false when the value has none of those shapes.
func Names(v any) (names []string, ok bool) {
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if n := nameOf(e); n != "" {
				names = append(names, n)
			}
		}
		return names, len(names) > 0
	case map[string]any:
		for _, k := range listKeys {
			if inner, found := t[k].([]any); found {
				return Names(inner)
			}
		}
		if n := nameOf(t); n != "" {
			return []string{n}, true
		}
	}
	return nil, false
}

func nameOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if s, ok := t["name"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
