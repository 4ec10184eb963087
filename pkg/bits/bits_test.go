package bits

import (
	mathbits "math/bits"
	"testing"

	"github.com/zedseven/binmani"
)

func TestBit(t *testing.T) {
	tests := []struct {
		n        uint
		expected byte
	}{
		{1, 0x01}, {5, 0x10}, {8, 0x80}, {0, 0x00},
		{9, 0x00}, //dumb value silently ignored
	}

	for _, tt := range tests {
		if res := Bit(tt.n); res != tt.expected {
			t.Errorf("Bit(%d) = 0x%02X; want 0x%02X", tt.n, res, tt.expected)
		}
	}
}

func TestIsSet(t *testing.T) {
	val := byte(0b10100101)
	if !IsSet(val, 8) {
		t.Error("Bit 8 should be set")
	}
	if IsSet(val, 7) {
		t.Error("Bit 7 should NOT be set")
	}
	if !IsSet(val, 1) {
		t.Error("Bit 1 should be set")
	}
	if IsSet(0xFF, 0) || IsSet(0xFF, 9) {
		t.Error("Out of range bits should never be set")
	}
}

func TestGetRange(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		high     uint
		low      uint
		expected byte
	}{
		{"Bits 4-3 of 0x0C", 0b0000_1100, 4, 3, 3},
		{"Bits 2-1 of 0x03", 0b0000_0011, 2, 1, 3},
		{"Bits 4-1 of 0x0F", 0b0000_1111, 4, 1, 15},
		{"Bits 8-7 of 0x40", 0b0100_0000, 8, 7, 1},
		{"Full Byte", 0xAA, 8, 1, 0xAA},
		{"Inverted range", 0xFF, 1, 4, 0},
		{"High out of range", 0xFF, 9, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := GetRange(tt.input, tt.high, tt.low); res != tt.expected {
				t.Errorf("GetRange(0x%02X, %d, %d) = %d; want %d", tt.input, tt.high, tt.low, res, tt.expected)
			}
		})
	}
}

func TestSetAndClear(t *testing.T) {
	var b byte = 0
	b = Set(b, 5)
	expected := byte(1 << 4)
	if b != expected {
		t.Errorf("Set(5) = 0b%08b; want 0b%08b", b, expected)
	}

	b = Clear(0xFF, 8)
	if b != 0x7F {
		t.Errorf("Clear(0xFF, 8) = 0b%08b; want 0b%08b", b, 0x7F)
	}

	if Set(0x00, 9) != 0x00 || Clear(0xFF, 0) != 0xFF {
		t.Error("Out of range positions should leave the byte unchanged")
	}
}

func TestSize(t *testing.T) {
	checks := []struct {
		name string
		got  uint
		want uint
	}{
		{"uint8", Size[uint8](), 8},
		{"int8", Size[int8](), 8},
		{"uint16", Size[uint16](), 16},
		{"int32", Size[int32](), 32},
		{"uint64", Size[uint64](), 64},
		{"int64", Size[int64](), 64},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("Size[%s]() = %d; want %d", c.name, c.got, c.want)
		}
	}
}

func TestCreateMask(t *testing.T) {
	tests := []struct {
		name     string
		length   uint
		start    uint
		expected uint16
	}{
		{"10 bits", 10, 0, 0b1111111111},
		{"5 bits", 5, 0, 0b11111},
		{"10 bits from 5", 10, 5, 0b111111111100000},
		{"5 bits from 5", 5, 5, 0b1111100000},
		{"Zero length", 0, 3, 0},
		{"Full width", 16, 0, 0xFFFF},
		{"Wider than type", 40, 0, 0xFFFF},
		{"Truncated by width", 8, 12, 0xF000},
		{"Start past width", 4, 16, 0},
		{"Start far past width", 4, 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := CreateMask[uint16](tt.length, tt.start); res != tt.expected {
				t.Errorf("CreateMask[uint16](%d, %d) = 0b%b; want 0b%b", tt.length, tt.start, res, tt.expected)
			}
		})
	}
}

func TestCreateMask_FullWidthEveryType(t *testing.T) {
	if got := CreateMask[uint8](8, 0); got != 0xFF {
		t.Errorf("uint8 full mask = 0x%X", got)
	}
	if got := CreateMask[int8](8, 0); got != -1 {
		t.Errorf("int8 full mask = %d; want -1", got)
	}
	if got := CreateMask[uint32](32, 0); got != 0xFFFFFFFF {
		t.Errorf("uint32 full mask = 0x%X", got)
	}
	if got := CreateMask[int32](31, 1); got != -2 {
		t.Errorf("int32 mask(31, 1) = %d; want -2", got)
	}
	if got := CreateMask[uint64](64, 0); got != ^uint64(0) {
		t.Errorf("uint64 full mask = 0x%X", got)
	}
	if got := CreateMask[int64](64, 63); got != -1<<63 {
		t.Errorf("int64 mask(64, 63) = %d", got)
	}
}

func TestCreateMask_PopCount(t *testing.T) {
	for length := uint(0); length <= 64; length++ {
		for start := uint(0); start <= 70; start++ {
			want := 0
			if start < 64 {
				want = int(min(length, 64-start))
			}
			mask := CreateMask[uint64](length, start)
			if got := mathbits.OnesCount64(mask); got != want {
				t.Fatalf("OnesCount(CreateMask[uint64](%d, %d)) = %d; want %d", length, start, got, want)
			}
			if mask != 0 && mathbits.TrailingZeros64(mask) != int(start) {
				t.Fatalf("CreateMask[uint64](%d, %d) starts at bit %d", length, start, mathbits.TrailingZeros64(mask))
			}
		}
	}
}

func TestUint16AgainstBinmani(t *testing.T) {
	values := []uint16{0x0000, 0xFFFF, 0xA5C3, 0x1234, 0x8001}

	for _, v := range values {
		for index := uint8(0); index < 16; index++ {
			for size := uint8(1); index+size <= 16 && size < 16; size++ {
				if got, want := ExtractBits(v, uint(index), uint(size)), binmani.ReadFrom(v, index, size); got != want {
					t.Fatalf("ExtractBits(0x%04X, %d, %d) = 0x%X; binmani says 0x%X", v, index, size, got, want)
				}

				field := uint16(0x5555) & CreateMask[uint16](uint(size), 0)
				if got, want := SetBits(v, field, uint(index), uint(size)), binmani.WriteTo(v, index, size, field); got != want {
					t.Fatalf("SetBits(0x%04X, 0x%X, %d, %d) = 0x%X; binmani says 0x%X", v, field, index, size, got, want)
				}
			}
		}
	}
}
