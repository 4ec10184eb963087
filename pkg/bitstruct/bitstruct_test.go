package bitstruct

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// level is stored on the wire as level-1.
type level uint8

func (l *level) UnmarshalBits(raw uint64) error {
	*l = level(raw + 1)
	return nil
}

func (l level) MarshalBits() (uint64, error) {
	return uint64(l) - 1, nil
}

type inner struct {
	Low  uint8 `bits:"0,2"`
	High uint8 `bits:"2,2"`
}

type status struct {
	Mode    uint8  `bits:"0,3" fmt:"bin"`
	Fault   bool   `bits:"3,1"`
	Counter int8   `bits:"4,4"`
	Inner   inner  `bits:"8,4"`
	Level   level  `bits:"12,4"`
	Ptr     *inner `bits:"16,4"`
	Skipped uint8
	Ignored uint8 `bits:"-"`
}

func TestUnmarshal(t *testing.T) {
	// Mode=0b101 Fault=1 Counter=0b1101 | Inner=0b0110 Level=4 | Ptr=0b1111
	raw := uint64(0x0F46DD)

	got := status{Skipped: 9, Ignored: 7}
	if err := Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := status{
		Mode:    5,
		Fault:   true,
		Counter: -3,
		Inner:   inner{Low: 2, High: 1},
		Level:   5,
		Ptr:     &inner{Low: 3, High: 3},
		Skipped: 9,
		Ignored: 7,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unmarshal mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshal(t *testing.T) {
	src := status{
		Mode:    5,
		Fault:   true,
		Counter: -3,
		Inner:   inner{Low: 2, High: 1},
		Level:   5,
		Ptr:     &inner{Low: 3, High: 3},
		Skipped: 0xFF,
		Ignored: 0xFF,
	}

	for _, tc := range []struct {
		name string
		src  any
	}{
		{"Value", src},
		{"Pointer", &src},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Marshal(tc.src)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if got != 0x0F46DD {
				t.Errorf("Marshal = 0x%X; want 0x0F46DD", got)
			}
		})
	}
}

func TestMarshal_NilPointerField(t *testing.T) {
	got, err := Marshal(status{Mode: 1, Level: 1})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got != 0x1 {
		t.Errorf("Marshal = 0x%X; want 0x1", got)
	}
}

func TestRoundTrip_SignExtension(t *testing.T) {
	type signed struct {
		Small int8  `bits:"0,4"`
		Wide  int64 `bits:"4,60"`
	}

	tests := []struct {
		name string
		in   signed
	}{
		{"Positive", signed{Small: 7, Wide: 12345}},
		{"Negative", signed{Small: -8, Wide: -1}},
		{"Mixed", signed{Small: -1, Wide: 1 << 58}},
		{"Zero", signed{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			var out signed
			if err := Unmarshal(raw, &out); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if diff := cmp.Diff(tt.in, out); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshal_FullWidthSigned(t *testing.T) {
	var out struct {
		V int64 `bits:"0,64"`
	}
	if err := Unmarshal(^uint64(0), &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.V != -1 {
		t.Errorf("V = %d; want -1", out.V)
	}
}

func TestMarshal_OverlapFirstDeclaredWins(t *testing.T) {
	type overlap struct {
		A uint8 `bits:"0,4"`
		B uint8 `bits:"2,4"`
	}

	got, err := Marshal(overlap{A: 0xF, B: 0})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got != 0x0F {
		t.Errorf("Marshal = 0b%b; want 0b1111", got)
	}
}

func TestMarshal_DropsBitsAboveLength(t *testing.T) {
	type narrow struct {
		A uint8 `bits:"0,3"`
		B uint8 `bits:"3,3"`
	}

	got, err := Marshal(narrow{A: 0xFF, B: 0})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got != 0b111 {
		t.Errorf("Marshal = 0b%b; want 0b111", got)
	}
}

func TestInvalidTargets(t *testing.T) {
	var nilPtr *status
	n := 3

	for _, tc := range []struct {
		name   string
		target any
	}{
		{"Struct value", status{}},
		{"Nil pointer", nilPtr},
		{"Pointer to int", &n},
		{"Nil", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if err := Unmarshal(0, tc.target); !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("Unmarshal error = %v; want ErrInvalidTarget", err)
			}
		})
	}

	if _, err := Marshal(42); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("Marshal(42) error = %v; want ErrInvalidTarget", err)
	}
}

func TestMalformedTags(t *testing.T) {
	tests := []struct {
		name   string
		target any
		msg    string
	}{
		{"Not a number", &struct {
			A uint8 `bits:"x,2"`
		}{}, "malformed start"},
		{"Missing length", &struct {
			A uint8 `bits:"3"`
		}{}, "malformed bits tag"},
		{"Zero length", &struct {
			A uint8 `bits:"0,0"`
		}{}, "out of range"},
		{"Too long", &struct {
			A uint64 `bits:"0,65"`
		}{}, "out of range"},
		{"Tag wider than uint8", &struct {
			A uint8 `bits:"0,12"`
		}{}, "length 12 exceeds uint8"},
		{"Tag wider than int8", &struct {
			B int8 `bits:"12,12"`
		}{}, "length 12 exceeds int8"},
		{"Tag wider than int", &struct {
			C int32 `bits:"0,33"`
		}{}, "length 33 exceeds int32"},
		{"Unsupported kind", &struct {
			S string `bits:"0,4"`
		}{}, "unsupported kind string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal(0xFF, tt.target)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
			if _, err := Marshal(tt.target); err == nil {
				t.Error("Marshal should fail too")
			}
		})
	}
}

func TestFieldWidths(t *testing.T) {
	type widths struct {
		A uint8 `bits:"0,8"`
		B int8  `bits:"8,8"`
		F bool  `bits:"16,4"`
		L level `bits:"20,4"`
	}

	var got widths
	if err := Unmarshal(0x247FFF, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := widths{A: 0xFF, B: 127, F: true, L: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unmarshal mismatch (-want +got):\n%s", diff)
	}
}
