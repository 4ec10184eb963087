// Package bits provides bit-level primitives for packing and unpacking fixed-width integers
// and raw byte buffers.
//
// # Numbering
//
// The generic functions (CreateMask, ExtractBits, SetBits, ...) number bits from 0, where bit 0
// is the least significant bit of the operand. Buffers handled by MoveWithOffset are numbered
// LSB-first as well: bit offset 8 is bit 0 of the second byte.
//
// The byte helpers (Bit, IsSet, GetRange, Set, Clear) follow the 1-indexed "b8..b1" notation
// used by most wire-format standards, where bit 1 is the least significant bit of the byte.
//
// # Out-of-range requests
//
// Offsets and lengths are never validated against the operand width. Bits that fall outside
// the operand read as zero and writes to them are dropped. Shift amounts that meet or exceed
// the operand width are handled explicitly, so every function is defined for every input.
package bits

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Size returns the width of T in bits.
func Size[T constraints.Integer]() uint {
	var zero T
	return uint(unsafe.Sizeof(zero)) * 8
}

// CreateMask returns a T with bitLength contiguous bits set, starting at startBit.
// A bitLength of Size[T]() or more selects every bit of T before the shift is applied.
// Bits shifted past the width of T are lost.
//
// Example: CreateMask[uint16](10, 5) returns 0b111111111100000
func CreateMask[T constraints.Integer](bitLength, startBit uint) T {
	width := Size[T]()
	if bitLength == 0 || startBit >= width {
		return 0
	}
	return T(lowMask(min(bitLength, width)) << startBit)
}

// lowMask returns a uint64 with the n low bits set.
func lowMask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return 1<<n - 1
}

// pattern returns the raw bit pattern of v, zero-extended to 64 bits.
// Signed values are not sign-extended.
func pattern[T constraints.Integer](v T) uint64 {
	return uint64(v) & lowMask(Size[T]())
}

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return CreateFlagSet[byte](n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}
	return ExtractBits(b, low-1, high-low+1)
}

// Set returns b with the n-th bit set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// Clear returns b with the n-th bit cleared.
func Clear(b byte, n uint) byte {
	return b &^ Bit(n)
}
