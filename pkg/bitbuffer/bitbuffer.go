// Package bitbuffer implements a first-in first-out queue of bits over a fixed workspace.
//
// Bits are stored LSB-first: the oldest bit is always bit 0 of the first workspace byte.
// Reading removes bits from the front and compacts the remaining ones towards the start of
// the workspace. Compaction is a plain byte copy when the removed run is byte aligned and a
// bits.MoveWithOffset otherwise, so pushes and reads of any width (1 bit, 3 bits, 13 bits...)
// can be freely mixed.
//
// A Buffer is not safe for concurrent use.
package bitbuffer

import (
	"encoding/binary"

	"github.com/gregLibert/libembedded/pkg/bits"
)

// MaxValueBits is the widest value accepted by PushValue and ReadValue.
const MaxValueBits = 64

// Buffer is a bit FIFO backed by a caller-owned workspace.
type Buffer struct {
	workspace []byte
	used      uint
	total     uint
}

// New creates a Buffer holding at most bitSize bits of workspace.
// bitSize is clamped to the size of the workspace. The workspace is not cleared.
func New(workspace []byte, bitSize uint) *Buffer {
	return &Buffer{
		workspace: workspace,
		total:     min(bitSize, uint(len(workspace))*8),
	}
}

// NewStatic creates a Buffer with its own zeroed workspace of bitSize bits.
func NewStatic(bitSize uint) *Buffer {
	return New(make([]byte, bytesFor(bitSize)), bitSize)
}

// AvailableForWrite returns the number of bits that can still be pushed.
func (b *Buffer) AvailableForWrite() uint {
	return b.total - b.used
}

// AvailableForRead returns the number of bits waiting to be read.
func (b *Buffer) AvailableForRead() uint {
	return b.used
}

// Cap returns the capacity of the buffer in bits.
func (b *Buffer) Cap() uint {
	return b.total
}

// Push appends up to bitCount bits of data, starting at bit 0 of data[0], and returns how
// many bits were stored. Fewer bits are stored when the buffer or data is too short.
func (b *Buffer) Push(data []byte, bitCount uint) uint {
	n := min(bitCount, b.AvailableForWrite())
	n = bits.MoveWithOffset(b.workspace, b.used, data, 0, n)
	b.used += n
	return n
}

// Peek copies up to bitCount of the oldest bits into out, starting at bit 0 of out[0],
// without removing them. It returns the number of bits copied.
func (b *Buffer) Peek(out []byte, bitCount uint) uint {
	return bits.MoveWithOffset(out, 0, b.workspace, 0, min(bitCount, b.used))
}

// Read copies up to bitCount of the oldest bits into out, like Peek, and removes them.
func (b *Buffer) Read(out []byte, bitCount uint) uint {
	n := b.Peek(out, bitCount)
	b.remove(n)
	return n
}

// Discard removes up to bitCount of the oldest bits and returns how many were removed.
func (b *Buffer) Discard(bitCount uint) uint {
	n := min(bitCount, b.used)
	b.remove(n)
	return n
}

// PushValue appends the low bitCount bits of v. It stores nothing and returns false when
// bitCount exceeds MaxValueBits or the space left in the buffer.
func (b *Buffer) PushValue(v uint64, bitCount uint) bool {
	if bitCount > MaxValueBits || bitCount > b.AvailableForWrite() {
		return false
	}
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], v)
	return b.Push(raw[:], bitCount) == bitCount
}

// ReadValue removes bitCount bits and returns them as an integer, oldest bit in bit 0.
// It returns false, and removes nothing, when fewer bits are available.
func (b *Buffer) ReadValue(bitCount uint) (uint64, bool) {
	if bitCount > MaxValueBits || bitCount > b.used {
		return 0, false
	}
	var raw [8]byte
	b.Read(raw[:], bitCount)
	return binary.LittleEndian.Uint64(raw[:]), true
}

// Reset drops every stored bit and clears the workspace.
func (b *Buffer) Reset() {
	clear(b.workspace[:bytesFor(b.total)])
	b.used = 0
}

func (b *Buffer) remove(bitCount uint) {
	if bitCount == 0 {
		return
	}
	if bitCount == b.used {
		clear(b.workspace[:bytesFor(b.used)])
		b.used = 0
		return
	}

	left := b.used - bitCount
	if bitCount%8 == 0 {
		copy(b.workspace, b.workspace[bitCount/8:bytesFor(b.used)])
	} else {
		bits.MoveWithOffset(b.workspace, 0, b.workspace, bitCount, left)
	}
	b.clearRange(left, b.used)
	b.used = left
}

// clearRange zeroes bits [from, to) of the workspace.
func (b *Buffer) clearRange(from, to uint) {
	for from < to {
		index, offset := from/8, from%8
		chunk := min(8-offset, to-from)
		b.workspace[index] = bits.SetBits(b.workspace[index], byte(0), offset, chunk)
		from += chunk
	}
}

func bytesFor(bitCount uint) uint {
	return (bitCount + 7) / 8
}
