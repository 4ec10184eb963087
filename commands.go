package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gregLibert/libembedded/pkg/frame"
	"github.com/gregLibert/libembedded/pkg/layout"
)

var errQuit = errors.New("quit")

const helpText = `Commands:
  <layout> <value>              decode a raw value (0x.., 0b.. or decimal)
  encode <layout> name=value..  pack field values into a raw value
  msb <layout> <value>          show a raw value most significant bit first
  frame <hex>                   decode a BER-TLV frame
  layouts                       list known layouts
  help                          show this text
  exit                          leave`

// decodeValue prints the fields of a raw value.
func decodeValue(out io.Writer, set *layout.Set, name, value string) error {
	l, ok := set.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown layout %q", name)
	}

	raw, err := parseNumber(value)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "=== %s 0x%X ===\n", l.Name, raw)
	fmt.Fprintln(out, l.Decode(raw).Describe(l, l.Name))
	return nil
}

// encodeRecord packs name=value assignments with a layout and prints the raw value.
func encodeRecord(out io.Writer, set *layout.Set, name string, assignments []string) error {
	l, ok := set.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown layout %q", name)
	}

	rec := make(layout.Record, len(assignments))
	for _, a := range assignments {
		field, value, found := strings.Cut(a, "=")
		if !found {
			return fmt.Errorf("malformed assignment %q: want name=value", a)
		}
		v, err := parseNumber(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		rec[field] = v
	}

	raw, err := l.Encode(rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "0x%0*X\n", int((l.Width+3)/4), raw)
	return nil
}

// showMSBFirst prints a raw value as a bit string in wire order.
func showMSBFirst(out io.Writer, set *layout.Set, name, value string) error {
	l, ok := set.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown layout %q", name)
	}

	raw, err := parseNumber(value)
	if err != nil {
		return err
	}

	bs, err := l.BitString(raw)
	if err != nil {
		return fmt.Errorf("failed to build bit string: %w", err)
	}
	fmt.Fprintln(out, layout.FormatBitString(bs))
	return nil
}

// decodeFrame prints the content of a hex encoded frame.
func decodeFrame(out io.Writer, set *layout.Set, hexParts ...string) error {
	data, err := frame.ParseHex(hexParts...)
	if err != nil {
		return err
	}

	f, err := frame.Decode(set, data)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, f.Describe())
	return nil
}

func listLayouts(out io.Writer, set *layout.Set) {
	names := make([]string, 0, len(set.Layouts))
	for _, l := range set.Layouts {
		names = append(names, l.Name)
	}
	sort.Strings(names)

	for _, name := range names {
		l, _ := set.Lookup(name)
		fmt.Fprintln(out, l.Describe())
	}
}

// evalLine runs one interactive command. It returns errQuit when the session should end.
func evalLine(out io.Writer, set *layout.Set, line string) error {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}

	switch words[0] {
	case "exit", "quit":
		return errQuit
	case "help":
		fmt.Fprintln(out, helpText)
		return nil
	case "layouts":
		listLayouts(out, set)
		return nil
	case "encode":
		if len(words) < 2 {
			return errors.New("usage: encode <layout> name=value...")
		}
		return encodeRecord(out, set, words[1], words[2:])
	case "msb":
		if len(words) != 3 {
			return errors.New("usage: msb <layout> <value>")
		}
		return showMSBFirst(out, set, words[1], words[2])
	case "frame":
		if len(words) < 2 {
			return errors.New("usage: frame <hex>")
		}
		return decodeFrame(out, set, words[1:]...)
	}

	if len(words) != 2 {
		return fmt.Errorf("unknown command %q, try help", words[0])
	}
	return decodeValue(out, set, words[0], words[1])
}

// parseNumber accepts Go integer literal syntax: 0x1F, 0b1011, 0o17, 1_000 or plain decimal.
func parseNumber(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

// splitAssignments splits "a=1, b=2" into its assignments.
func splitAssignments(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
