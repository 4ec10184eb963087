// Package layout describes packed records in YAML and converts them to and from raw values.
//
// A layout file lists record kinds, each with a width in bits and a set of named fields:
//
//	layouts:
//	  - name: status
//	    tag: "81"
//	    width: 16
//	    fields:
//	      - {name: mode, start: 0, length: 3}
//	      - {name: fault, start: 3, length: 1, format: bool}
//
// The tag is the BER-TLV tag under which records of that kind travel in a frame.
package layout

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gregLibert/libembedded/pkg/bits"
)

var (
	// ErrUnknownField is returned when a record names a field its layout does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrValueOverflow is returned when a record value does not fit in its field.
	ErrValueOverflow = errors.New("value does not fit in field")
	// ErrShortData is returned by Unpack when data holds fewer records than requested.
	ErrShortData = errors.New("not enough data")
)

// Field is a named run of bits inside a record.
type Field struct {
	Name   string `yaml:"name"`
	Start  uint   `yaml:"start"`
	Length uint   `yaml:"length"`
	Format string `yaml:"format,omitempty"`
}

// Layout describes one kind of record.
type Layout struct {
	Name   string  `yaml:"name"`
	Tag    string  `yaml:"tag,omitempty"`
	Width  uint    `yaml:"width"`
	Fields []Field `yaml:"fields"`
}

// Set is a validated collection of layouts, indexed by name and by tag.
type Set struct {
	Layouts []*Layout `yaml:"layouts"`

	byName map[string]*Layout
	byTag  map[string]*Layout
}

// Record holds field values by field name.
type Record map[string]uint64

// Load reads and validates a layout file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes and validates YAML layout definitions. Unknown keys are rejected.
func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var set Set
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no layouts defined")
		}
		return nil, fmt.Errorf("failed to parse YAML layouts: %w", err)
	}

	if err := set.index(); err != nil {
		return nil, err
	}
	return &set, nil
}

// NewSet validates and indexes layouts built in code.
func NewSet(layouts ...*Layout) (*Set, error) {
	set := &Set{Layouts: layouts}
	if err := set.index(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *Set) index() error {
	if len(s.Layouts) == 0 {
		return errors.New("no layouts defined")
	}

	s.byName = make(map[string]*Layout, len(s.Layouts))
	s.byTag = make(map[string]*Layout, len(s.Layouts))

	for i, l := range s.Layouts {
		if l == nil {
			return fmt.Errorf("layout #%d is empty", i)
		}
		if err := l.validate(); err != nil {
			return fmt.Errorf("layout %q: %w", l.Name, err)
		}
		if _, dup := s.byName[l.Name]; dup {
			return fmt.Errorf("duplicate layout name %q", l.Name)
		}
		s.byName[l.Name] = l

		if l.Tag == "" {
			continue
		}
		if other, dup := s.byTag[l.Tag]; dup {
			return fmt.Errorf("layouts %q and %q share tag %s", other.Name, l.Name, l.Tag)
		}
		s.byTag[l.Tag] = l
	}
	return nil
}

// Lookup returns the layout with the given name.
func (s *Set) Lookup(name string) (*Layout, bool) {
	l, ok := s.byName[name]
	return l, ok
}

// ByTag returns the layout carried under a BER-TLV tag. The tag is matched case-insensitively.
func (s *Set) ByTag(tag string) (*Layout, bool) {
	l, ok := s.byTag[strings.ToUpper(tag)]
	return l, ok
}

// validate checks the layout and normalizes its tag to upper case hex.
func (l *Layout) validate() error {
	if l.Name == "" {
		return errors.New("missing name")
	}
	if l.Width == 0 || l.Width > 64 {
		return fmt.Errorf("width %d out of range (1-64)", l.Width)
	}
	if len(l.Fields) == 0 {
		return errors.New("no fields defined")
	}

	if l.Tag != "" {
		l.Tag = strings.ToUpper(l.Tag)
		if err := validateTag(l.Tag); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(l.Fields))
	for _, f := range l.Fields {
		switch {
		case f.Name == "":
			return errors.New("field with no name")
		case seen[f.Name]:
			return fmt.Errorf("duplicate field %q", f.Name)
		case f.Length == 0:
			return fmt.Errorf("field %q has zero length", f.Name)
		case f.Start >= l.Width || f.Length > l.Width-f.Start:
			return fmt.Errorf("field %q [%d:%d] exceeds width %d", f.Name, f.Start, f.Length, l.Width)
		}
		switch f.Format {
		case "", "dec", "hex", "bin", "bool":
		default:
			return fmt.Errorf("field %q has unknown format %q", f.Name, f.Format)
		}
		seen[f.Name] = true
	}
	return nil
}

// validateTag accepts primitive BER-TLV tags only: records are opaque packed bits, so a
// constructed tag would make frame decoders parse them as nested TLVs.
func validateTag(tag string) error {
	raw, err := hex.DecodeString(tag)
	if err != nil || len(raw) == 0 {
		return fmt.Errorf("tag %q is not valid hex", tag)
	}
	if bits.IsSet(raw[0], 6) {
		return fmt.Errorf("tag %s is constructed", tag)
	}
	if raw[0]&0x1F == 0x1F {
		// Multi-byte tag: subsequent bytes have b8 set except the last one.
		for i, b := range raw[1:] {
			last := i == len(raw)-2
			if bits.IsSet(b, 8) == last {
				return fmt.Errorf("tag %s is malformed", tag)
			}
		}
		if len(raw) == 1 {
			return fmt.Errorf("tag %s is truncated", tag)
		}
	} else if len(raw) != 1 {
		return fmt.Errorf("tag %s is malformed", tag)
	}
	return nil
}

// Field returns the named field.
func (l *Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Decode splits a raw record into its fields. Bits above the layout width are ignored.
func (l *Layout) Decode(raw uint64) Record {
	values := make([]uint64, len(l.Fields))
	targets := make([]bits.Extraction[uint64], len(l.Fields))
	for i, f := range l.Fields {
		targets[i] = bits.Extraction[uint64]{Out: &values[i], Start: f.Start, Length: f.Length}
	}
	bits.ExtractValues(raw, targets...)

	rec := make(Record, len(l.Fields))
	for i, f := range l.Fields {
		rec[f.Name] = values[i]
	}
	return rec
}

// Encode packs a record into a raw value. Missing fields are zero. Overlapping fields are
// resolved in favour of the one listed first in the layout.
func (l *Layout) Encode(rec Record) (uint64, error) {
	for name := range rec {
		if _, ok := l.Field(name); !ok {
			return 0, fmt.Errorf("layout %q: %w %q", l.Name, ErrUnknownField, name)
		}
	}

	fields := make([]bits.Field[uint64], 0, len(l.Fields))
	for _, f := range l.Fields {
		v := rec[f.Name]
		if v != bits.ExtractBits(v, 0, f.Length) {
			return 0, fmt.Errorf("layout %q: field %q: %w (%d bits)", l.Name, f.Name, ErrValueOverflow, f.Length)
		}
		fields = append(fields, bits.Field[uint64]{Value: v, Start: f.Start, Length: f.Length})
	}
	return bits.SetFields(uint64(0), fields...), nil
}
