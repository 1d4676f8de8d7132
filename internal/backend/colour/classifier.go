package colour

import "math"

const (
	// Unclassified is returned when no palette entry is close enough.
	Unclassified = "Unclassified Color"

	// DefaultThreshold is the largest accepted weighted distance.
	DefaultThreshold = 0.4

	redWeight   = 0.30
	greenWeight = 0.59
	blueWeight  = 0.11
)

// SampledColor is an RGB triple with channels on the [0,1] scale.
type SampledColor struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Classifier maps samples to the nearest named palette entry.
// A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	palette   []ColorEntry
	threshold float64
}

var defaultClassifier = NewClassifier(DefaultPalette, DefaultThreshold)

// NewClassifier copies the palette so later changes by the caller do not leak in.
func NewClassifier(palette []ColorEntry, threshold float64) *Classifier {
	p := make([]ColorEntry, len(palette))
	copy(p, palette)
	return &Classifier{palette: p, threshold: threshold}
}

// Classify names a sample using the default palette and threshold.
func Classify(sample SampledColor) string {
	return defaultClassifier.Classify(sample)
}

// Distance is the luma-weighted Euclidean distance between two samples.
func Distance(a, b SampledColor) float64 {
	dr := a.R - b.R
	dg := a.G - b.G
	db := a.B - b.B
	return math.Sqrt(redWeight*dr*dr + greenWeight*dg*dg + blueWeight*db*db)
}

// Nearest returns the closest entry and its distance. The first entry wins a tie.
// ok is false only for an empty palette.
func (c *Classifier) Nearest(sample SampledColor) (entry ColorEntry, distance float64, ok bool) {
	distance = math.Inf(1)
	for _, e := range c.palette {
		d := Distance(sample, e.Normalized())
		if d < distance {
			distance = d
			entry = e
			ok = true
		}
	}
	return entry, distance, ok
}

// Classify returns the nearest entry's name, or Unclassified when the
// nearest distance is above the threshold.
func (c *Classifier) Classify(sample SampledColor) string {
	entry, distance, ok := c.Nearest(sample)
	if !ok || distance > c.threshold {
		return Unclassified
	}
	return entry.Name
}

// Palette returns a copy of the classifier's palette.
func (c *Classifier) Palette() []ColorEntry {
	p := make([]ColorEntry, len(c.palette))
	copy(p, c.palette)
	return p
}
