package layout

import (
	"strings"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/gregLibert/libembedded/pkg/bits"
)

// BitString renders a raw record as a Width-bit string, most significant bit first. This is
// the order of wire diagrams and of Erlang-style bit syntax, the reverse of field numbering.
func (l *Layout) BitString(raw uint64) (*funbit.BitString, error) {
	builder := funbit.NewBuilder()

	options := []funbit.SegmentOption{funbit.WithSize(l.Width)}
	if l.Width == 64 {
		options = append(options, funbit.WithSigned(true))
	}
	funbit.AddInteger(builder, int64(bits.ExtractBits(raw, 0, l.Width)), options...)

	return funbit.Build(builder)
}

// FormatBitString prints the bits of bs most significant first, in groups of eight. Only
// Length() bits are printed, so the zero padding of a partial last byte never shows.
func FormatBitString(bs *funbit.BitString) string {
	if bs == nil || bs.Length() == 0 {
		return ""
	}

	bitLength := int(bs.Length())
	data := bs.ToBytes()

	var sb strings.Builder
	for i := 0; i < bitLength; i++ {
		if i > 0 && i%8 == 0 {
			sb.WriteByte(' ')
		}
		if (data[i/8]>>(7-i%8))&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
