// Package frame carries batches of packed records inside a BER-TLV record template.
//
// A frame is a constructed TLV with tag '70'. Each batch is one primitive TLV inside it,
// tagged with its layout's tag. The batch value starts with one byte holding the number of
// unused padding bits in the last byte (as in an ASN.1 BIT STRING), followed by the records
// packed back to back by layout.Layout.Pack.
//
//	70 L
//	   81 L  uu rr rr rr ...   status records
//	   9F20 L  uu rr rr ...    temperature records
package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/libembedded/pkg/layout"
)

// TemplateTag is the tag of the record template wrapping every frame.
const TemplateTag = "70"

var (
	// ErrNoTemplate is returned when data does not start with a record template.
	ErrNoTemplate = errors.New("missing mandatory Record Template (Tag 70)")
	// ErrMalformedBatch is returned when a batch value cannot hold a whole number of records.
	ErrMalformedBatch = errors.New("malformed batch")
)

// Batch is a run of records sharing one layout.
type Batch struct {
	Layout  string
	Records []layout.Record
}

// Frame is a decoded record template.
type Frame struct {
	Batches []Batch

	// Unknown holds TLVs whose tag matches no layout, in the order they were found.
	Unknown []bertlv.TLV

	set *layout.Set
}

// Encode packs batches into a frame. Every batch must name a layout that has a tag.
func Encode(set *layout.Set, batches []Batch) ([]byte, error) {
	if len(batches) == 0 {
		return nil, errors.New("no batches to encode")
	}

	children := make([]bertlv.TLV, 0, len(batches))
	for i, b := range batches {
		l, ok := set.Lookup(b.Layout)
		if !ok {
			return nil, fmt.Errorf("batch %d: unknown layout %q", i, b.Layout)
		}
		if l.Tag == "" {
			return nil, fmt.Errorf("batch %d: layout %q has no tag", i, l.Name)
		}

		packed, err := l.Pack(b.Records)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}

		unused := uint(len(packed))*8 - l.PackedBits(len(b.Records))
		value := make([]byte, 0, len(packed)+1)
		value = append(value, byte(unused))
		value = append(value, packed...)

		children = append(children, bertlv.TLV{Tag: l.Tag, Value: value})
	}

	data, err := bertlv.Encode([]bertlv.TLV{{Tag: TemplateTag, TLVs: children}})
	if err != nil {
		return nil, fmt.Errorf("BER-TLV encode failed: %w", err)
	}
	return data, nil
}

// Decode interprets raw bytes as a frame. TLVs following the template are kept in Unknown.
func Decode(set *layout.Set, data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty frame data")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	if len(packets) == 0 || !strings.EqualFold(packets[0].Tag, TemplateTag) {
		return nil, ErrNoTemplate
	}

	f := &Frame{set: set}
	for _, p := range packets[0].TLVs {
		l, ok := set.ByTag(p.Tag)
		if !ok {
			f.Unknown = append(f.Unknown, p)
			continue
		}

		records, err := decodeBatch(l, p.Value)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", p.Tag, err)
		}
		f.Batches = append(f.Batches, Batch{Layout: l.Name, Records: records})
	}
	f.Unknown = append(f.Unknown, packets[1:]...)

	return f, nil
}

func decodeBatch(l *layout.Layout, value []byte) ([]layout.Record, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: missing unused bits byte", ErrMalformedBatch)
	}

	unused := uint(value[0])
	packed := value[1:]
	if unused > 7 || (len(packed) == 0 && unused != 0) {
		return nil, fmt.Errorf("%w: %d unused bits", ErrMalformedBatch, unused)
	}

	used := uint(len(packed))*8 - unused
	if used%l.Width != 0 {
		return nil, fmt.Errorf("%w: %d bits is not a multiple of the %d bit %s record", ErrMalformedBatch, used, l.Width, l.Name)
	}

	return l.Unpack(packed, int(used/l.Width))
}

// Records returns every record of the named layout, across batches.
func (f *Frame) Records(layoutName string) []layout.Record {
	var out []layout.Record
	for _, b := range f.Batches {
		if b.Layout == layoutName {
			out = append(out, b.Records...)
		}
	}
	return out
}

// Describe generates a report of every batch and unknown TLV in the frame.
func (f *Frame) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== FRAME ===")

	for i, b := range f.Batches {
		fmt.Fprintf(&sb, "\n    - Batch[%d]: %s, %d records", i+1, b.Layout, len(b.Records))

		var l *layout.Layout
		if f.set != nil {
			l, _ = f.set.Lookup(b.Layout)
		}
		for j, rec := range b.Records {
			if l == nil {
				fmt.Fprintf(&sb, "\n    - %s[%d]: %v", b.Layout, j+1, map[string]uint64(rec))
				continue
			}
			if lines := rec.Describe(l, fmt.Sprintf("%s[%d]", b.Layout, j+1)); lines != "" {
				sb.WriteString("\n")
				sb.WriteString(lines)
			}
		}
	}

	for _, t := range f.Unknown {
		fmt.Fprintf(&sb, "\n    - Frame.Unknown Tag %s: %s", strings.ToUpper(t.Tag), strings.ToUpper(hex.EncodeToString(rawValue(t))))
	}

	return sb.String()
}

// rawValue returns the value of a TLV, re-encoding children of constructed ones.
func rawValue(t bertlv.TLV) []byte {
	if len(t.TLVs) > 0 {
		if enc, err := bertlv.Encode(t.TLVs); err == nil {
			return enc
		}
	}
	return t.Value
}
