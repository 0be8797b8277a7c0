// Package convert guards integer conversions that the compiler accepts
// but that would silently wrap at runtime.
package convert

import "fmt"

// IntToUintSafe converts an int to uint, panicking on negative input.
// Callers use it where a negative value means a broken invariant, such
// as the retry counter feeding a backoff shift.
func IntToUintSafe(v int) uint {
	if v < 0 {
		panic(fmt.Sprintf("cannot convert negative int to uint: %d", v))
	}
	return uint(v)
}

// IntToUintClamped converts an int to uint, flooring negative values
// at zero. Suited to counters where wrap-around is worse than loss.
func IntToUintClamped(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v)
}
