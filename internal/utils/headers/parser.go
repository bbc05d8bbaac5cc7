package headers

import (
	"strings"
)

// ParseHeaders converts repeated "-H 'Key: Value'" flag values into a map.
// Entries without a colon are ignored. Later duplicates win.
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string)
	for _, hdr := range h {
		key, value, ok := strings.Cut(hdr, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		m[key] = strings.TrimSpace(value)
	}
	return m
}
