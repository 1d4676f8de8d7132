package cli

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, dir string, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return path
}

func TestClassifyCmd(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"classify", "1", "0", "0"}, want: "Red"},
		{args: []string{"classify", "0.5", "0.5", "0.5"}, want: "Gray"},
		{args: []string{"classify", "3", "3", "3"}, want: "Unclassified Color"},
		{args: []string{"classify", "--hex", "#000080"}, want: "Navy"},
	}
	for _, tt := range tests {
		out, err := run(t, tt.args...)
		if err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if strings.TrimSpace(out) != tt.want {
			t.Errorf("%v: got %q, want %q", tt.args, out, tt.want)
		}
	}
}

func TestClassifyCmd_InvalidArgs(t *testing.T) {
	for _, args := range [][]string{
		{"classify", "1", "0"},
		{"classify", "red", "0", "0"},
		{"classify", "--hex", "#12"},
		{"classify", "--hex", "#000080", "1"},
	} {
		if _, err := run(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestPaletteCmd(t *testing.T) {
	out, err := run(t, "palette")
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 71 {
		t.Fatalf("expected 71 lines, got %d", len(lines))
	}
	if lines[0] != "#FFFFFF\tWhite" {
		t.Errorf("unexpected first line %q", lines[0])
	}
}

func TestSampleCmd(t *testing.T) {
	path := writePNG(t, t.TempDir(), color.RGBA{G: 255, A: 255})
	out, err := run(t, "sample", path)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !strings.HasPrefix(out, "Green\t") {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := run(t, "sample", filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCaptureAndListCmd(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	config := fmt.Sprintf("database:\n  type: sqlite\n  connectionString: %s\nimageDirectory: %s\n",
		filepath.Join(dir, "library.db"), filepath.Join(dir, "images"))
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	imagePath := writePNG(t, dir, color.RGBA{R: 255, A: 255})

	out, err := run(t, "--config", configPath, "capture", imagePath, "--object", "Shirt")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	fields := strings.Split(strings.TrimSpace(out), "\t")
	if len(fields) != 3 || fields[1] != "Red" || fields[2] != "Shirt" {
		t.Fatalf("unexpected capture output %q", out)
	}

	out, err = run(t, "--config", configPath, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, fields[0]) || !strings.Contains(out, "Shirt") {
		t.Errorf("list output misses captured photo: %q", out)
	}

	if _, err := run(t, "--config", configPath, "describe", fields[0]); err == nil {
		t.Error("expected error without a configured describer")
	}
}
