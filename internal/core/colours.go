package core

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/closetcam/internal/backend/colour"
)

// ColourResult is a sample together with the name it classified to.
type ColourResult struct {
	Name   string              `json:"name"`
	Sample colour.SampledColor `json:"sample"`
}

func (service *CoreService) Palette() []colour.ColorEntry {
	return service.classifier.Palette()
}

func (service *CoreService) ClassifyColour(sample colour.SampledColor) ColourResult {
	return ColourResult{Name: service.classifier.Classify(sample), Sample: sample}
}

func (service *CoreService) ClassifyHex(hex string) (ColourResult, error) {
	sample, err := colour.ParseHex(hex)
	if err != nil {
		return ColourResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return service.ClassifyColour(sample), nil
}

// SampleImage classifies the centre patch of an encoded image.
func (service *CoreService) SampleImage(data []byte) (ColourResult, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return ColourResult{}, fmt.Errorf("%w: failed to decode image: %v", ErrInvalidInput, err)
	}
	name, sample := service.classifier.ClassifyImage(img, service.config.SampleSize)
	return ColourResult{Name: name, Sample: sample}, nil
}
