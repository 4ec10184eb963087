package bits

import "golang.org/x/exp/constraints"

// ExtractBits returns the bitCount bits of value starting at startBit, shifted down to bit 0.
// Every bit of the field that lies outside T reads as zero; signed values are never
// sign-extended.
//
// Example: ExtractBits(uint8(0b10101010), 3, 3) returns 0b101
func ExtractBits[T constraints.Integer](value T, startBit, bitCount uint) T {
	if bitCount == 0 || startBit >= Size[T]() {
		return 0
	}
	return T((pattern(value) >> startBit) & lowMask(bitCount))
}

// Extraction describes one field read by ExtractValues.
type Extraction[T constraints.Integer] struct {
	Out    *T
	Start  uint
	Length uint
}

// ExtractValues reads several fields of the same value in one call.
// Extractions are evaluated left to right and independently: they may be listed in any
// order and may overlap. An Extraction with a nil Out is skipped.
func ExtractValues[T constraints.Integer](value T, targets ...Extraction[T]) {
	for _, t := range targets {
		if t.Out == nil {
			continue
		}
		*t.Out = ExtractBits(value, t.Start, t.Length)
	}
}
