package bitstruct

import (
	"fmt"
	"reflect"

	"github.com/gregLibert/libembedded/pkg/bits"
)

// Marshal packs the tagged fields of src, a struct or a pointer to one, into a single value.
// Fields are written in declaration order priority: when two tags overlap, the field
// declared first wins. Bits of a field value above its tagged length are dropped.
func Marshal(src any) (uint64, error) {
	v, err := structValue(src, false)
	if err != nil {
		return 0, err
	}
	return marshalStruct(v)
}

func marshalStruct(v reflect.Value) (uint64, error) {
	fields, err := collectFields(v)
	if err != nil {
		return 0, err
	}

	writes := make([]bits.Field[uint64], 0, len(fields))
	for _, f := range fields {
		raw, err := encodeValue(f.value)
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", f.meta.Name, err)
		}
		writes = append(writes, bits.Field[uint64]{Value: raw, Start: f.tag.start, Length: f.tag.length})
	}
	return bits.SetFields(uint64(0), writes...), nil
}

func encodeValue(field reflect.Value) (uint64, error) {
	if m, ok := asMarshaler(field); ok {
		return m.MarshalBits()
	}

	switch field.Kind() {
	case reflect.Bool:
		if field.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return field.Uint(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(field.Int()), nil
	case reflect.Struct:
		return marshalStruct(field)
	case reflect.Ptr:
		if field.Type().Elem().Kind() != reflect.Struct {
			break
		}
		if field.IsNil() {
			return 0, nil
		}
		return marshalStruct(field.Elem())
	}
	return 0, fmt.Errorf("unsupported kind %s", field.Kind())
}

func asMarshaler(field reflect.Value) (Marshaler, bool) {
	if field.CanInterface() {
		if m, ok := field.Interface().(Marshaler); ok {
			return m, true
		}
	}
	if field.CanAddr() && field.Addr().CanInterface() {
		if m, ok := field.Addr().Interface().(Marshaler); ok {
			return m, true
		}
	}
	return nil, false
}
