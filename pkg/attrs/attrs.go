// Package attrs reads values out of slog-style key/value argument lists.
package attrs

// ExtractString returns the string value paired with key in a
// [key1, value1, key2, value2, ...] list, or "" when absent or not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); ok && k == key {
			v, _ := attrs[i+1].(string)
			return v
		}
	}
	return ""
}
