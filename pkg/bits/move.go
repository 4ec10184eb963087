package bits

import "unsafe"

// MoveWithOffset copies bitCount bits from src, starting at bit srcBitOffset, into dst,
// starting at bit dstBitOffset, and returns the number of bits copied. Offsets count bits
// LSB-first: offset 9 is bit 1 of byte 1.
//
// The copy steps one chunk at a time, a chunk being the largest run of bits that crosses no
// byte boundary in either buffer:
//
//	chunk = min(8 - dstOffset, 8 - srcOffset, remaining)
//
// No bit outside the moved range is written. Source and destination may share memory: when
// the destination starts inside the source range, chunks are copied from the end backwards.
//
// The call is a no-op when either buffer is nil, when bitCount is 0, or when both sides name
// the same bit of the same memory. bitCount is clamped to the bits available in both buffers.
func MoveWithOffset(dst []byte, dstBitOffset uint, src []byte, srcBitOffset uint, bitCount uint) uint {
	if dst == nil || src == nil || bitCount == 0 {
		return 0
	}

	bitCount = min(bitCount, available(dst, dstBitOffset), available(src, srcBitOffset))
	if bitCount == 0 {
		return 0
	}

	dstAddr := bitAddress(dst, dstBitOffset)
	srcAddr := bitAddress(src, srcBitOffset)
	switch {
	case dstAddr == srcAddr:
		return 0
	case dstAddr > srcAddr && dstAddr < srcAddr+uintptr(bitCount):
		moveBackward(dst, dstBitOffset, src, srcBitOffset, bitCount)
	default:
		moveForward(dst, dstBitOffset, src, srcBitOffset, bitCount)
	}
	return bitCount
}

// available returns how many bits of buf lie at or after offset.
func available(buf []byte, offset uint) uint {
	total := uint(len(buf)) * 8
	if offset >= total {
		return 0
	}
	return total - offset
}

// bitAddress identifies a bit of memory so that aliasing buffers can be compared.
func bitAddress(buf []byte, offset uint) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))*8 + uintptr(offset)
}

func moveForward(dst []byte, dstBitOffset uint, src []byte, srcBitOffset uint, bitCount uint) {
	dstIndex, dstOffset := dstBitOffset/8, dstBitOffset%8
	srcIndex, srcOffset := srcBitOffset/8, srcBitOffset%8

	for copied := uint(0); copied < bitCount; {
		chunk := min(8-dstOffset, 8-srcOffset, bitCount-copied)
		dst[dstIndex] = SetBits(dst[dstIndex], ExtractBits(src[srcIndex], srcOffset, chunk), dstOffset, chunk)

		dstOffset += chunk
		srcOffset += chunk
		copied += chunk
		if dstOffset == 8 {
			dstIndex++
			dstOffset = 0
		}
		if srcOffset == 8 {
			srcIndex++
			srcOffset = 0
		}
	}
}

func moveBackward(dst []byte, dstBitOffset uint, src []byte, srcBitOffset uint, bitCount uint) {
	dstEnd := dstBitOffset + bitCount
	srcEnd := srcBitOffset + bitCount

	for remaining := bitCount; remaining > 0; {
		chunk := min(bitsBelow(dstEnd), bitsBelow(srcEnd), remaining)
		dstEnd -= chunk
		srcEnd -= chunk
		remaining -= chunk

		dst[dstEnd/8] = SetBits(dst[dstEnd/8], ExtractBits(src[srcEnd/8], srcEnd%8, chunk), dstEnd%8, chunk)
	}
}

// bitsBelow returns how many bits of the byte holding bit end-1 lie below end.
func bitsBelow(end uint) uint {
	if r := end % 8; r != 0 {
		return r
	}
	return 8
}
