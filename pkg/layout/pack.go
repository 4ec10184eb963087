package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gregLibert/libembedded/pkg/bitbuffer"
	"github.com/gregLibert/libembedded/pkg/bitstruct"
)

// PackedBits returns the number of bits count records of this layout occupy.
func (l *Layout) PackedBits(count int) uint {
	return uint(count) * l.Width
}

// Pack encodes records back to back, Width bits each, the first record starting at bit 0
// of the first byte. The last byte is zero padded.
func (l *Layout) Pack(records []Record) ([]byte, error) {
	total := l.PackedBits(len(records))
	buf := bitbuffer.NewStatic(total)

	for i, rec := range records {
		raw, err := l.Encode(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if !buf.PushValue(raw, l.Width) {
			return nil, fmt.Errorf("record %d: buffer full", i)
		}
	}

	out := make([]byte, (total+7)/8)
	buf.Read(out, total)
	return out, nil
}

// Unpack decodes count records packed by Pack.
func (l *Layout) Unpack(data []byte, count int) ([]Record, error) {
	if count < 0 {
		return nil, fmt.Errorf("negative record count %d", count)
	}
	if l.Width == 0 {
		return nil, fmt.Errorf("layout %q has no width", l.Name)
	}
	have := uint(len(data)) * 8
	if uint(count) > have/l.Width {
		return nil, fmt.Errorf("layout %q: %w: %d records of %d bits, have %d bits", l.Name, ErrShortData, count, l.Width, have)
	}
	need := l.PackedBits(count)

	buf := bitbuffer.NewStatic(need)
	buf.Push(data, need)

	records := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		raw, ok := buf.ReadValue(l.Width)
		if !ok {
			return nil, fmt.Errorf("record %d: %w", i, ErrShortData)
		}
		records = append(records, l.Decode(raw))
	}
	return records, nil
}

// Describe renders a record field by field, in layout order. Fields present in the record
// but unknown to the layout are listed last, sorted by name.
func (r Record) Describe(l *Layout, prefix string) string {
	var lines []string
	for _, f := range l.Fields {
		v, ok := r[f.Name]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("    - %s.%s [%d:%d]: %s", prefix, f.Name, f.Start, f.Length, bitstruct.FormatValue(v, f.Length, f.Format)))
	}

	var extra []string
	for name := range r {
		if _, ok := l.Field(name); !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		lines = append(lines, fmt.Sprintf("    - %s.Unknown Field %s: %d", prefix, name, r[name]))
	}

	return strings.Join(lines, "\n")
}

// Describe generates a report of the layout itself.
func (l *Layout) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== LAYOUT %s (%d bits", l.Name, l.Width)
	if l.Tag != "" {
		fmt.Fprintf(&sb, ", tag %s", l.Tag)
	}
	sb.WriteString(") ===")

	for _, f := range l.Fields {
		format := f.Format
		if format == "" {
			format = "dec"
		}
		fmt.Fprintf(&sb, "\n    - %s [%d:%d] %s", f.Name, f.Start, f.Length, format)
	}
	return sb.String()
}
