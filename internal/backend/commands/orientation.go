package commands

import (
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/closetcam/internal/backend/commandstructure"
)

// OrientationParams represents typed parameters for orientation command
type OrientationParams struct {
	Orientation      string
	RotateWhenSquare bool
	Clockwise        bool
	Quality          int
}

func NewOrientationParamsFromMap(params map[string]any) (*OrientationParams, error) {
	orientation := commandstructure.GetStringParam(params, "orientation", "portrait")
	if orientation != "portrait" && orientation != "landscape" {
		return nil, fmt.Errorf("invalid orientation: %s (must be 'portrait' or 'landscape')", orientation)
	}
	quality, err := qualityParam(params)
	if err != nil {
		return nil, err
	}
	return &OrientationParams{
		Orientation:      orientation,
		RotateWhenSquare: commandstructure.GetBoolParam(params, "rotateWhenSquare", false),
		Clockwise:        commandstructure.GetBoolParam(params, "clockwise", true),
		Quality:          quality,
	}, nil
}

// OrientationCommand turns photos by 90 degrees until they match the
// configured orientation.
type OrientationCommand struct {
	name   string
	params *OrientationParams
}

func NewOrientationCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewOrientationParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &OrientationCommand{
		name:   "OrientationCommand",
		params: typedParams,
	}, nil
}

func (c *OrientationCommand) Name() string {
	return c.name
}

func (c *OrientationCommand) GetParams() *OrientationParams {
	return c.params
}

func (c *OrientationCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := decodeImage(imageData)
	if err != nil {
		slog.Error("OrientationCommand: failed to decode image", "error", err)
		return nil, err
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	var rotate bool
	if width == height {
		rotate = c.params.RotateWhenSquare
	} else {
		isPortrait := height > width
		rotate = isPortrait != (c.params.Orientation == "portrait")
	}

	slog.Debug("OrientationCommand: analyzed orientation",
		"width", width,
		"height", height,
		"target_orientation", c.params.Orientation,
		"rotate", rotate)

	if !rotate {
		return imageData, nil
	}

	// imaging rotates counter-clockwise
	rotated := imaging.Rotate90(img)
	if c.params.Clockwise {
		rotated = imaging.Rotate270(img)
	}

	out, err := encodeJPEG(rotated, c.params.Quality)
	if err != nil {
		slog.Error("OrientationCommand: failed to encode rotated image", "error", err)
		return nil, err
	}
	return out, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("OrientationCommand", NewOrientationCommand); err != nil {
		panic(fmt.Sprintf("failed to register OrientationCommand: %v", err))
	}
}
