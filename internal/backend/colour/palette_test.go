package colour

import (
	"math"
	"testing"
)

func TestDefaultPalette_UniqueNames(t *testing.T) {
	seen := make(map[string]bool, len(DefaultPalette))
	for _, e := range DefaultPalette {
		if seen[e.Name] {
			t.Errorf("duplicate palette name %q", e.Name)
		}
		seen[e.Name] = true
	}
	if len(DefaultPalette) != 71 {
		t.Errorf("expected 71 palette entries, got %d", len(DefaultPalette))
	}
}

func TestColorEntry_Hex(t *testing.T) {
	e := ColorEntry{"Crimson", 0xDC, 0x14, 0x3C}
	if got := e.Hex(); got != "#DC143C" {
		t.Fatalf("Hex() = %q, want %q", got, "#DC143C")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    SampledColor
		wantErr bool
	}{
		{in: "#FF0000", want: SampledColor{R: 1}},
		{in: "00ff00", want: SampledColor{G: 1}},
		{in: "  #0000ff ", want: SampledColor{B: 1}},
		{in: "#FFF", wantErr: true},
		{in: "#GG0000", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got.R-tt.want.R) > 1e-9 || math.Abs(got.G-tt.want.G) > 1e-9 || math.Abs(got.B-tt.want.B) > 1e-9 {
				t.Fatalf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseHex_RoundTripsPalette(t *testing.T) {
	for _, e := range DefaultPalette {
		got, err := ParseHex(e.Hex())
		if err != nil {
			t.Fatalf("ParseHex(%s) error: %v", e.Hex(), err)
		}
		if Classify(got) != e.Name {
			t.Errorf("hex %s classified as %q, want %q", e.Hex(), Classify(got), e.Name)
		}
	}
}
