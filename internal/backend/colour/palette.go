package colour

import (
	"fmt"
	"strconv"
	"strings"
)

// ColorEntry is a named reference colour with 8-bit channels.
type ColorEntry struct {
	Name string
	R    uint8
	G    uint8
	B    uint8
}

// Normalized returns the entry on the [0,1] per-channel scale.
func (e ColorEntry) Normalized() SampledColor {
	return SampledColor{
		R: float64(e.R) / 255.0,
		G: float64(e.G) / 255.0,
		B: float64(e.B) / 255.0,
	}
}

// Hex returns the entry as #RRGGBB.
func (e ColorEntry) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", e.R, e.G, e.B)
}

// DefaultPalette is the fixed ordered palette used for classification.
// Scan order equals declaration order, so earlier entries win ties.
var DefaultPalette = []ColorEntry{
	// Basic
	{"White", 0xFF, 0xFF, 0xFF},
	{"Black", 0x00, 0x00, 0x00},
	{"Red", 0xFF, 0x00, 0x00},
	{"Green", 0x00, 0xFF, 0x00},
	{"Blue", 0x00, 0x00, 0xFF},
	{"Yellow", 0xFF, 0xFF, 0x00},
	{"Cyan", 0x00, 0xFF, 0xFF},
	{"Magenta", 0xFF, 0x00, 0xFF},

	// Reds
	{"Crimson", 0xDC, 0x14, 0x3C},
	{"Firebrick", 0xB2, 0x22, 0x22},
	{"Scarlet", 0xFF, 0x24, 0x00},
	{"Ruby", 0xE0, 0x11, 0x5F},
	{"Maroon", 0x80, 0x00, 0x00},
	{"Burgundy", 0x80, 0x00, 0x20},
	{"Cherry", 0xDE, 0x31, 0x63},
	{"Rosewood", 0x65, 0x00, 0x0B},
	{"Coral Red", 0xFF, 0x40, 0x40},
	{"Indian Red", 0xCD, 0x5C, 0x5C},
	{"Salmon", 0xFA, 0x80, 0x72},
	{"Light Coral", 0xF0, 0x80, 0x80},

	// Greens
	{"Forest Green", 0x22, 0x8B, 0x22},
	{"Lime Green", 0x32, 0xCD, 0x32},
	{"Olive Green", 0x6B, 0x8E, 0x23},
	{"Mint Green", 0x98, 0xFF, 0x98},
	{"Pale Green", 0x98, 0xFB, 0x98},
	{"Emerald", 0x50, 0xC8, 0x78},
	{"Sea Green", 0x2E, 0x8B, 0x57},
	{"Jade", 0x00, 0xA8, 0x6B},
	{"Neon Green", 0x39, 0xFF, 0x14},

	// Blues
	{"Sky Blue", 0x87, 0xCE, 0xEB},
	{"Dodger Blue", 0x1E, 0x90, 0xFF},
	{"Deep Sky Blue", 0x00, 0xBF, 0xFF},
	{"Cobalt Blue", 0x00, 0x47, 0xAB},
	{"Navy", 0x00, 0x00, 0x80},
	{"Steel Blue", 0x46, 0x82, 0xB4},
	{"Powder Blue", 0xB0, 0xE0, 0xE6},
	{"Electric Blue", 0x7D, 0xF9, 0xFF},
	{"Cerulean", 0x00, 0x7B, 0xA7},
	{"Azure", 0x00, 0x7F, 0xFF},
	{"Arctic Blue", 0xE0, 0xFF, 0xFF},

	// Yellows
	{"Light Yellow", 0xFF, 0xFF, 0xE0},
	{"Lemon", 0xFF, 0xF4, 0x4F},
	{"Goldenrod", 0xDA, 0xA5, 0x20},
	{"Mustard", 0xFF, 0xDB, 0x58},
	{"Bright Yellow", 0xFF, 0xEA, 0x00},
	{"Canary Yellow", 0xFF, 0xEF, 0x00},

	// Oranges
	{"Orange", 0xFF, 0xA5, 0x00},
	{"Dark Orange", 0xFF, 0x8C, 0x00},
	{"Peach", 0xFF, 0xDA, 0xB9},
	{"Coral", 0xFF, 0x7F, 0x50},
	{"Tangerine", 0xF2, 0x85, 0x00},
	{"Pumpkin", 0xFF, 0x75, 0x18},
	{"Amber", 0xFF, 0xBF, 0x00},

	// Purples
	{"Purple", 0x80, 0x00, 0x80},
	{"Violet", 0xEE, 0x82, 0xEE},
	{"Indigo", 0x4B, 0x00, 0x82},
	{"Lavender", 0xE6, 0xE6, 0xFA},
	{"Amethyst", 0x99, 0x66, 0xCC},
	{"Orchid", 0xDA, 0x70, 0xD6},
	{"Mauve", 0xE0, 0xB0, 0xFF},
	{"Lilac", 0xC8, 0xA2, 0xC8},
	{"Plum", 0xDD, 0xA0, 0xDD},
	{"Deep Purple", 0x67, 0x3A, 0xB7},

	// Pinks
	{"Pink", 0xFF, 0xC0, 0xCB},
	{"Hot Pink", 0xFF, 0x69, 0xB4},
	{"Deep Pink", 0xFF, 0x14, 0x93},
	{"Bubblegum", 0xFF, 0x85, 0xC1},
	{"Blush", 0xDE, 0x5D, 0x83},

	// Neutrals
	{"Gray", 0x80, 0x80, 0x80},
	{"Light Gray", 0xD3, 0xD3, 0xD3},
	{"Beige", 0xF5, 0xF5, 0xDC},
}

// ParseHex parses "#RRGGBB" (leading '#' optional, case-insensitive) into a
// normalised sample.
func ParseHex(hex string) (SampledColor, error) {
	s := strings.ToUpper(strings.TrimSpace(hex))
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return SampledColor{}, fmt.Errorf("invalid hex colour %q: expected 6 hex digits", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return SampledColor{}, fmt.Errorf("invalid hex colour %q: %w", hex, err)
	}
	return SampledColor{
		R: float64((v>>16)&0xFF) / 255.0,
		G: float64((v>>8)&0xFF) / 255.0,
		B: float64(v&0xFF) / 255.0,
	}, nil
}
