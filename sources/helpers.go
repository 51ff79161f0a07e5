package sources

import "strings"

// asMap unwraps a decoded JSON object, returning nil when v is anything else.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// asSlice unwraps a decoded JSON array.
func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// pickStr returns the first non-empty string value among the given keys.
func pickStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				if s2 := strings.TrimSpace(s); s2 != "" {
					return s2
				}
			}
		}
	}
	return ""
}
