package urlpolicy

import (
	"net/url"
	"sort"
	"strings"
)

// EncodeQuery is url.Values.Encode with "/" left literal, so relative paths
// carried in parameters stay readable. "/" is legal in a query component.
func EncodeQuery(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		ek := escape(k)
		for _, val := range v[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(ek)
			b.WriteByte('=')
			b.WriteString(escape(val))
		}
	}
	return b.String()
}

// WithQuery appends the encoded query to path.
func WithQuery(path string, v url.Values) string {
	q := EncodeQuery(v)
	if q == "" {
		return path
	}
	return path + "?" + q
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2F", "/")
}
