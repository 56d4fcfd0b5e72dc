package shared

import (
	"fmt"
	"strings"
)

// ParseEnum matches s against values ignoring case and surrounding space.
// An empty s yields the zero value, which callers treat as "any".
func ParseEnum[T ~string](s string, values []T, kind string) (T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, v := range values {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown %s %q", kind, s)
}

// JoinEnum lists values for prompts and help texts.
func JoinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
