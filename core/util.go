package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ContainsAnyFold reports whether `s` contains one of `substrs`, ignoring case.
// Empty substrings never match.
func ContainsAnyFold(s string, substrs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range substrs {
		sub = CleanString(sub, true /* lower */)
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
