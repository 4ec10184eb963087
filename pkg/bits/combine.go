package bits

import "golang.org/x/exp/constraints"

// CombineBitValues extracts len1 bits of value1 at offset1 and len2 bits of value2 at
// offset2 and concatenates them: the field of value1 fills the low len1 bits of the result
// and the field of value2 sits directly above it. Bits that do not fit in T3 are lost.
//
// It models reading two adjacent memory words as one logical bit stream.
func CombineBitValues[T1, T2, T3 constraints.Integer](value1 T1, value2 T2, offset1, len1, offset2, len2 uint) T3 {
	combined := pattern(ExtractBits(value1, offset1, len1))
	if len1 < 64 {
		combined |= pattern(ExtractBits(value2, offset2, len2)) << len1
	}
	return T3(combined)
}

// GetCombinedValue reads low and high as one bit stream of 2*Size[T]() bits, low first,
// and returns bitCount bits starting at startBit. At most 64 bits are returned and bits past
// the end of the stream read as zero.
func GetCombinedValue[T constraints.Integer](low, high T, startBit, bitCount uint) uint64 {
	width := Size[T]()
	if bitCount == 0 || startBit >= 2*width {
		return 0
	}

	var stream uint64
	if startBit < width {
		stream = pattern(low) >> startBit
		if taken := width - startBit; taken < 64 {
			stream |= pattern(high) << taken
		}
	} else {
		stream = pattern(high) >> (startBit - width)
	}
	return stream & lowMask(bitCount)
}

// SetBits returns base with the length-bit field at start replaced by the low length bits
// of value. Every other bit of base is preserved; bits of value above length are ignored.
//
// Example: SetBits(uint16(0b1100010001), uint16(0b110011), 2, 6) returns 0b1111001101
func SetBits[T, V constraints.Integer](base T, value V, start, length uint) T {
	mask := CreateMask[T](length, start)
	if mask == 0 {
		return base
	}
	field := T((pattern(value) & lowMask(length)) << start)
	return base&^mask | field&mask
}

// Field is one write applied by SetFields.
type Field[T constraints.Integer] struct {
	Value  T
	Start  uint
	Length uint
}

// SetFields applies each field to base with SetBits, from the last field to the first.
// When fields overlap the left-most one therefore wins.
func SetFields[T constraints.Integer](base T, fields ...Field[T]) T {
	for i := len(fields) - 1; i >= 0; i-- {
		base = SetBits(base, fields[i].Value, fields[i].Start, fields[i].Length)
	}
	return base
}
