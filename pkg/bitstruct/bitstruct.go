// Package bitstruct maps Go structs onto packed integers using struct tags.
//
// A field takes part in the mapping when it carries a `bits:"start,length"` tag, where start
// is the position of the field's least significant bit in the packed value:
//
//	type Status struct {
//		Mode    uint8 `bits:"0,3"`
//		Fault   bool  `bits:"3,1"`
//		Counter int8  `bits:"4,4"`
//	}
//
// Unsigned fields receive the raw field value, bool fields are true when any tagged bit is
// set, signed fields are sign-extended from the tagged length, and nested structs (or pointers to structs) are decoded from their own
// sub-field. An integer field must be at least as wide as its tag. Fields without a tag, or
// tagged `bits:"-"`, are ignored.
package bitstruct

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gregLibert/libembedded/pkg/bits"
)

// Unmarshaler allows custom types to implement their own bit field decoding.
type Unmarshaler interface {
	UnmarshalBits(raw uint64) error
}

// Marshaler allows custom types to implement their own bit field encoding.
type Marshaler interface {
	MarshalBits() (uint64, error)
}

// ErrInvalidTarget is returned when Unmarshal or Marshal is given something other than a struct.
var ErrInvalidTarget = errors.New("target must be a non-nil pointer to a struct")

// fieldTag is a parsed `bits:"start,length"` tag.
type fieldTag struct {
	start  uint
	length uint
}

func parseTag(tag string) (fieldTag, error) {
	parts := strings.Split(tag, ",")
	if len(parts) != 2 {
		return fieldTag{}, fmt.Errorf("malformed bits tag %q: want \"start,length\"", tag)
	}

	start, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
	if err != nil {
		return fieldTag{}, fmt.Errorf("malformed start in bits tag %q: %w", tag, err)
	}
	length, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 8)
	if err != nil {
		return fieldTag{}, fmt.Errorf("malformed length in bits tag %q: %w", tag, err)
	}
	if length == 0 || length > 64 {
		return fieldTag{}, fmt.Errorf("length %d in bits tag %q out of range (1-64)", length, tag)
	}

	return fieldTag{start: uint(start), length: uint(length)}, nil
}

// taggedField is one struct field taking part in the mapping.
type taggedField struct {
	value reflect.Value
	meta  reflect.StructField
	tag   fieldTag
}

// collectFields returns the tagged fields of a struct value in declaration order.
func collectFields(v reflect.Value) ([]taggedField, error) {
	t := v.Type()
	var fields []taggedField

	for i := 0; i < v.NumField(); i++ {
		meta := t.Field(i)
		config, ok := meta.Tag.Lookup("bits")
		if !ok || config == "-" || !meta.IsExported() {
			continue
		}

		tag, err := parseTag(config)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", meta.Name, err)
		}
		if err := checkWidth(meta.Type, tag); err != nil {
			return nil, fmt.Errorf("field %s: %w", meta.Name, err)
		}
		fields = append(fields, taggedField{value: v.Field(i), meta: meta, tag: tag})
	}
	return fields, nil
}

var (
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
)

// checkWidth rejects integer fields too narrow for their tag. Types with their own
// MarshalBits or UnmarshalBits handle any length, and a bool of any length is true when one
// of its bits is set.
func checkWidth(t reflect.Type, tag fieldTag) error {
	pt := reflect.PointerTo(t)
	if t.Implements(marshalerType) || pt.Implements(marshalerType) || pt.Implements(unmarshalerType) {
		return nil
	}

	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if tag.length > uint(t.Bits()) {
			return fmt.Errorf("length %d exceeds %s", tag.length, t)
		}
	}
	return nil
}

// structValue resolves target to the struct it points to.
func structValue(target any, needPointer bool) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, ErrInvalidTarget
		}
		v = v.Elem()
	} else if needPointer {
		return reflect.Value{}, ErrInvalidTarget
	}

	if v.Kind() != reflect.Struct {
		return reflect.Value{}, ErrInvalidTarget
	}
	return v, nil
}

func signExtend(raw uint64, length uint) int64 {
	if length >= 64 {
		return int64(raw)
	}
	if bits.HasFlagSet(raw, length-1) {
		raw |= ^bits.CreateMask[uint64](length, 0)
	}
	return int64(raw)
}

func isStructOrPtrToStruct(v reflect.Value) bool {
	if v.Kind() == reflect.Struct {
		return true
	}
	return v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.Struct
}
