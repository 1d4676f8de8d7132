package colour

import (
	"image"
	"image/color"
)

// DefaultSampleSize is the edge length of the centre patch that gets averaged.
const DefaultSampleSize = 10

// SampleCenter averages a size×size patch around the image centre.
// The patch is clipped to the image bounds; an empty image yields black.
func SampleCenter(img image.Image, size int) SampledColor {
	if size <= 0 {
		size = DefaultSampleSize
	}
	b := img.Bounds()
	x0 := b.Min.X + b.Dx()/2 - size/2
	y0 := b.Min.Y + b.Dy()/2 - size/2
	patch := image.Rect(x0, y0, x0+size, y0+size).Intersect(b)
	if patch.Empty() {
		return SampledColor{}
	}

	var sumR, sumG, sumB float64
	for y := patch.Min.Y; y < patch.Max.Y; y++ {
		for x := patch.Min.X; x < patch.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			sumR += float64(c.R)
			sumG += float64(c.G)
			sumB += float64(c.B)
		}
	}
	n := float64(patch.Dx() * patch.Dy())
	return SampledColor{
		R: sumR / n / 255.0,
		G: sumG / n / 255.0,
		B: sumB / n / 255.0,
	}
}

// ClassifyImage samples the centre of img and names the result.
func (c *Classifier) ClassifyImage(img image.Image, size int) (string, SampledColor) {
	sample := SampleCenter(img, size)
	return c.Classify(sample), sample
}
