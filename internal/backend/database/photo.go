package database

import (
	"fmt"
	"sort"
)

// Photo is a catalogued garment. Its ID is also the stem of the backing
// image file name.
type Photo struct {
	ID                   string            `json:"id"`
	Description          string            `json:"description"`
	Object               string            `json:"object"`
	GeneratedDescription *string           `json:"generatedDescription,omitempty"`
	Rank                 string            `json:"rank"`
	AssociatedPhotos     []AssociatedPhoto `json:"associatedPhotos"`
}

// AssociatedPhoto is a label or detail shot attached to a Photo, together
// with the text recognised on it.
type AssociatedPhoto struct {
	ID        string `json:"id"`
	ImageData []byte `json:"imageData"` // JPEG
	Text      string `json:"text"`
}

// Texts returns the texts of all associated photos in order.
func (p *Photo) Texts() []string {
	texts := make([]string, 0, len(p.AssociatedPhotos))
	for _, a := range p.AssociatedPhotos {
		texts = append(texts, a.Text)
	}
	return texts
}

// validateOrder checks that order is a permutation of the stored ids.
func validateOrder(existing map[string]string, order []string) error {
	if len(order) != len(existing) {
		return fmt.Errorf("order has %d ids, library has %d", len(order), len(existing))
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if _, ok := existing[id]; !ok {
			return fmt.Errorf("photo %s: %w", id, ErrNotFound)
		}
		if seen[id] {
			return fmt.Errorf("photo %s listed twice in order", id)
		}
		seen[id] = true
	}
	return nil
}

// sortByRank orders photos by rank, then id.
func sortByRank(photos []*Photo) {
	sort.Slice(photos, func(i, j int) bool {
		if photos[i].Rank != photos[j].Rank {
			return photos[i].Rank < photos[j].Rank
		}
		return photos[i].ID < photos[j].ID
	})
}
