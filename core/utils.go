package core

import "strings"

// CleanString returns s with surrounding whitespace removed; pass true to
// also lowercase the result.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}
