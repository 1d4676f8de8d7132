package commands

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestNewOrientationCommand_Params(t *testing.T) {
	command, err := NewOrientationCommand(map[string]any{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	params := command.(*OrientationCommand).GetParams()
	if params.Orientation != "portrait" || params.RotateWhenSquare || !params.Clockwise || params.Quality != DefaultJpegQuality {
		t.Errorf("unexpected defaults: %+v", params)
	}

	if _, err := NewOrientationCommand(map[string]any{"orientation": "diagonal"}); err == nil {
		t.Error("Expected error for invalid orientation")
	}
}

func TestOrientationCommand_Execute(t *testing.T) {
	landscape := encodeTestJPEG(t, solidImage(40, 20, color.Gray{Y: 128}))
	portrait := encodeTestJPEG(t, solidImage(20, 40, color.Gray{Y: 128}))
	square := encodeTestJPEG(t, solidImage(30, 30, color.Gray{Y: 128}))

	tests := []struct {
		name        string
		params      map[string]any
		input       []byte
		wantW       int
		wantH       int
		wantSameRef bool
	}{
		{name: "landscape to portrait", params: map[string]any{"orientation": "portrait"}, input: landscape, wantW: 20, wantH: 40},
		{name: "portrait stays portrait", params: map[string]any{"orientation": "portrait"}, input: portrait, wantW: 20, wantH: 40, wantSameRef: true},
		{name: "portrait to landscape", params: map[string]any{"orientation": "landscape"}, input: portrait, wantW: 40, wantH: 20},
		{name: "square untouched", params: map[string]any{}, input: square, wantW: 30, wantH: 30, wantSameRef: true},
		{name: "square rotated when asked", params: map[string]any{"rotateWhenSquare": true}, input: square, wantW: 30, wantH: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, err := NewOrientationCommand(tt.params)
			if err != nil {
				t.Fatalf("Failed to create command: %v", err)
			}
			out, err := command.Execute(tt.input)
			if err != nil {
				t.Fatalf("Execute error: %v", err)
			}
			if tt.wantSameRef && !bytes.Equal(out, tt.input) {
				t.Error("expected input bytes to be returned unchanged")
			}
			cfg, _ := decodeConfig(t, out)
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, cfg.Width, cfg.Height)
			}
		})
	}
}

func TestOrientationCommand_Direction(t *testing.T) {
	// left half black, right half white
	img := solidImage(40, 20, color.White)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.Black)
		}
	}
	input := encodeTestJPEG(t, img)

	clockwise, _ := NewOrientationCommand(map[string]any{"clockwise": true})
	out, err := clockwise.Execute(input)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	rotated, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	// clockwise moves the left edge to the top
	top, _, _, _ := rotated.At(10, 5).RGBA()
	bottom, _, _, _ := rotated.At(10, 35).RGBA()
	if top>>8 > 60 || bottom>>8 < 200 {
		t.Errorf("unexpected clockwise result: top=%d bottom=%d", top>>8, bottom>>8)
	}

	counter, _ := NewOrientationCommand(map[string]any{"clockwise": false})
	out, err = counter.Execute(input)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	rotated, _ = jpeg.Decode(bytes.NewReader(out))
	top, _, _, _ = rotated.At(10, 5).RGBA()
	bottom, _, _, _ = rotated.At(10, 35).RGBA()
	if top>>8 < 200 || bottom>>8 > 60 {
		t.Errorf("unexpected counter-clockwise result: top=%d bottom=%d", top>>8, bottom>>8)
	}
}
