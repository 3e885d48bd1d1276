// Package util provides some basic utility functions.
package util

import "cmp"

// Clamp returns val if val is within lo and hi, lo if val < lo, or hi if val > hi.
func Clamp[T cmp.Ordered](lo, hi, val T) T {
	return min(hi, max(lo, val))
}
