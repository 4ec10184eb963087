package bitstruct

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gregLibert/libembedded/pkg/bits"
)

// WriteStructFields inspects a bit-tagged struct and writes one line per field to the strings.Builder.
// Nested structs are flattened with a dotted prefix. Like the rest of the describe helpers, it
// joins lines with newlines but does not add a trailing newline, and separates its block from
// previous builder content with a newline.
func WriteStructFields(sb *strings.Builder, prefix string, s any) {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	lines := describeStruct(prefix, val)
	if len(lines) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}
}

func describeStruct(prefix string, val reflect.Value) []string {
	fields, err := collectFields(val)
	if err != nil {
		return []string{fmt.Sprintf("    - %s: %v", prefix, err)}
	}

	var lines []string
	for _, f := range fields {
		name := prefix + "." + f.meta.Name

		if isStructOrPtrToStruct(f.value) {
			if _, custom := asMarshaler(f.value); !custom {
				if f.value.Kind() == reflect.Ptr {
					if f.value.IsNil() {
						continue
					}
					lines = append(lines, describeStruct(name, f.value.Elem())...)
					continue
				}
				lines = append(lines, describeStruct(name, f.value)...)
				continue
			}
		}

		raw, err := encodeValue(f.value)
		display := ""
		if err != nil {
			display = err.Error()
		} else {
			display = formatFieldValue(f, raw)
		}
		lines = append(lines, fmt.Sprintf("    - %s [%d:%d]: %s", name, f.tag.start, f.tag.length, display))
	}
	return lines
}

func formatFieldValue(f taggedField, raw uint64) string {
	if format := f.meta.Tag.Get("fmt"); format != "" {
		return FormatValue(raw, f.tag.length, format)
	}

	switch f.value.Kind() {
	case reflect.Bool:
		return fmt.Sprintf("%t", f.value.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", f.value.Int())
	default:
		return fmt.Sprintf("%d", raw)
	}
}

// FormatValue renders the low length bits of raw using one of the display formats
// "hex", "bin", "bool" or "dec". Unknown formats fall back to "dec".
func FormatValue(raw uint64, length uint, format string) string {
	raw = bits.ExtractBits(raw, 0, length)

	switch format {
	case "hex":
		return fmt.Sprintf("0x%0*X", int((length+3)/4), raw)
	case "bin":
		return fmt.Sprintf("0b%0*b", int(length), raw)
	case "bool":
		return fmt.Sprintf("%t", raw != 0)
	default:
		return fmt.Sprintf("%d", raw)
	}
}
