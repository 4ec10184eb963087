package bitstruct

import (
	"fmt"
	"reflect"

	"github.com/gregLibert/libembedded/pkg/bits"
)

// Unmarshal decodes the packed value raw into the struct pointed to by target.
func Unmarshal(raw uint64, target any) error {
	v, err := structValue(target, true)
	if err != nil {
		return err
	}
	return unmarshalStruct(raw, v)
}

func unmarshalStruct(raw uint64, v reflect.Value) error {
	fields, err := collectFields(v)
	if err != nil {
		return err
	}

	for _, f := range fields {
		fieldBits := bits.ExtractBits(raw, f.tag.start, f.tag.length)
		if err := decodeToValue(fieldBits, f.tag, f.value); err != nil {
			return fmt.Errorf("field %s: %w", f.meta.Name, err)
		}
	}
	return nil
}

// decodeToValue handles the leaf-node decoding logic (custom Unmarshaler, scalars, nested structs).
func decodeToValue(fieldBits uint64, tag fieldTag, field reflect.Value) error {
	// 1. Custom Unmarshaler
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalBits(fieldBits)
		}
	}

	switch field.Kind() {
	case reflect.Bool:
		field.SetBool(fieldBits != 0)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		field.SetUint(fieldBits)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		field.SetInt(signExtend(fieldBits, tag.length))
	default:
		// 2. Nested structures
		if isStructOrPtrToStruct(field) {
			return unmarshalStruct(fieldBits, getTargetField(field))
		}
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

// getTargetField returns the struct behind field, allocating nil pointers.
func getTargetField(field reflect.Value) reflect.Value {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return field.Elem()
	}
	return field
}
