package frame

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex builds a byte slice from a series of hex strings.
// Spaces are ignored to allow formats like "70 05 81 03".
func ParseHex(parts ...string) ([]byte, error) {
	cleanHex := strings.ReplaceAll(strings.Join(parts, ""), " ", "")

	data, err := hex.DecodeString(cleanHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input '%s': %w", cleanHex, err)
	}
	return data, nil
}

// Hex is like ParseHex but panics on invalid input. It is meant for constants and tests.
func Hex(parts ...string) []byte {
	data, err := ParseHex(parts...)
	if err != nil {
		panic(err)
	}
	return data
}
