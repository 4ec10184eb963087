package bits

import "golang.org/x/exp/constraints"

// CreateFlagSet returns a T with the bit at each position set.
// Positions outside T contribute nothing.
func CreateFlagSet[T constraints.Integer](positions ...uint) T {
	var flags T
	for _, p := range positions {
		flags |= CreateMask[T](1, p)
	}
	return flags
}

// HasFlagSet reports whether every listed position is set in value.
// A position outside T is never set. With no positions it returns true.
func HasFlagSet[T constraints.Integer](value T, positions ...uint) bool {
	for _, p := range positions {
		if ExtractBits(value, p, 1) == 0 {
			return false
		}
	}
	return true
}
