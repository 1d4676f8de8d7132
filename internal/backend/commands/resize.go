package commands

import (
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/closetcam/internal/backend/commandstructure"
)

// ResizeParams bounds the output size. A zero dimension is unbounded.
type ResizeParams struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

func NewResizeParamsFromMap(params map[string]any) (*ResizeParams, error) {
	_, hasWidth := params["maxWidth"]
	_, hasHeight := params["maxHeight"]
	if !hasWidth && !hasHeight {
		return nil, fmt.Errorf("at least one of 'maxWidth' or 'maxHeight' must be specified")
	}

	result := &ResizeParams{
		MaxWidth:  commandstructure.GetIntParam(params, "maxWidth", 0),
		MaxHeight: commandstructure.GetIntParam(params, "maxHeight", 0),
	}
	if hasWidth && result.MaxWidth <= 0 {
		return nil, fmt.Errorf("maxWidth must be positive, got %d", result.MaxWidth)
	}
	if hasHeight && result.MaxHeight <= 0 {
		return nil, fmt.Errorf("maxHeight must be positive, got %d", result.MaxHeight)
	}

	quality, err := qualityParam(params)
	if err != nil {
		return nil, err
	}
	result.Quality = quality
	return result, nil
}

// ResizeCommand shrinks photos to fit inside the configured bounds while
// keeping the aspect ratio. Smaller photos are left untouched.
type ResizeCommand struct {
	name   string
	params *ResizeParams
}

func NewResizeCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewResizeParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &ResizeCommand{name: "ResizeCommand", params: typedParams}, nil
}

// NewThumbnailCommand returns a resize bounded by width only.
func NewThumbnailCommand(width, quality int) (*ResizeCommand, error) {
	command, err := NewResizeCommand(map[string]any{"maxWidth": width, "quality": quality})
	if err != nil {
		return nil, err
	}
	return command.(*ResizeCommand), nil
}

func (c *ResizeCommand) Name() string {
	return c.name
}

func (c *ResizeCommand) GetParams() *ResizeParams {
	return c.params
}

func (c *ResizeCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := decodeImage(imageData)
	if err != nil {
		slog.Error("ResizeCommand: failed to decode image", "error", err)
		return nil, err
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	targetW, targetH := fitWithin(width, height, c.params.MaxWidth, c.params.MaxHeight)
	if targetW == width && targetH == height {
		slog.Debug("ResizeCommand: image already within bounds", "width", width, "height", height)
		return imageData, nil
	}

	slog.Debug("ResizeCommand: scaling image",
		"original_width", width,
		"original_height", height,
		"target_width", targetW,
		"target_height", targetH)

	out, err := encodeJPEG(imaging.Resize(img, targetW, targetH, imaging.Lanczos), c.params.Quality)
	if err != nil {
		slog.Error("ResizeCommand: failed to encode scaled image", "error", err)
		return nil, err
	}
	return out, nil
}

// fitWithin returns the largest size not exceeding the bounds with the
// source aspect ratio. Each side is at least one pixel.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	scale := 1.0
	if maxWidth > 0 && width > maxWidth {
		scale = float64(maxWidth) / float64(width)
	}
	if maxHeight > 0 && height > maxHeight {
		if s := float64(maxHeight) / float64(height); s < scale {
			scale = s
		}
	}
	if scale == 1.0 {
		return width, height
	}
	w := max(int(float64(width)*scale+0.5), 1)
	h := max(int(float64(height)*scale+0.5), 1)
	if maxWidth > 0 {
		w = min(w, maxWidth)
	}
	if maxHeight > 0 {
		h = min(h, maxHeight)
	}
	return w, h
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("ResizeCommand", NewResizeCommand); err != nil {
		panic(fmt.Sprintf("failed to register ResizeCommand: %v", err))
	}
}
