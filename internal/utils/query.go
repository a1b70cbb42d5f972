// Package utils provides small helpers used by the HTTP layer.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// LimitParam parses a "limit"-style query value: invalid or missing values
// yield def, and the result is bounded to [1, max].
func LimitParam(s string, def, max int) int {
	return Clamp(AtoiDefault(s, def), 1, max)
}
