package commands

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/closetcam/internal/backend/commandstructure"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultJpegQuality matches the quality the photo library stores captures at.
const DefaultJpegQuality = 80

// decodeImage decodes any registered raster format and applies the EXIF
// orientation tag when one is present.
func decodeImage(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func qualityParam(params map[string]any) (int, error) {
	quality := commandstructure.GetIntParam(params, "quality", DefaultJpegQuality)
	if quality < 1 || quality > 100 {
		return 0, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	return quality, nil
}
