package database

import "strings"

// Ranks are strings over '0'..'z' compared lexicographically. The library
// order is the ascending rank order.
const (
	minChar = '0'
	maxChar = 'z'
	midChar = 'U'
)

// Next returns a short rank that sorts strictly after prev.
// The first character with room above it is bumped halfway towards maxChar
// and the tail is dropped, so appending keeps ranks short. When no character
// has room, midChar is appended.
func Next(prev string) string {
	if prev == "" {
		return string(midChar)
	}
	p := []rune(prev)
	for i, c := range p {
		if c < minChar {
			c = minChar
		}
		if c+1 < maxChar {
			return string(p[:i]) + string(c+(maxChar-c)/2)
		}
	}
	return prev + string(midChar)
}

// IsBetween reports whether rank lies strictly between prev and next.
// An empty bound is open. With both bounds open it returns false so the
// caller assigns a fresh rank.
func IsBetween(prev, rank, next string) bool {
	switch {
	case prev == "" && next == "":
		return false
	case prev == "":
		return strings.Compare(rank, next) < 0
	case next == "":
		return strings.Compare(prev, rank) < 0
	default:
		return strings.Compare(prev, rank) < 0 && strings.Compare(rank, next) < 0
	}
}

// Between returns a rank strictly between prev and next. An empty next
// means "after prev"; an empty prev means "before next".
//
// Walking both bounds position by position, equal characters are copied.
// At the first position with a gap a midpoint character is emitted. Without
// a gap the lower character is copied and the walk descends one level, where
// an exhausted upper bound counts as maxChar so a gap always appears.
func Between(prev, next string) string {
	if next == "" {
		return Next(prev)
	}

	p := []rune(prev)
	n := []rune(next)

	var out []rune
	for i := 0; ; i++ {
		lo := rune(minChar)
		if i < len(p) {
			lo = p[i]
		}
		hi := rune(maxChar)
		if i < len(n) {
			hi = n[i]
		}

		if lo == hi {
			out = append(out, lo)
			continue
		}
		if lo+1 < hi {
			out = append(out, lo+(hi-lo)/2)
			return string(out)
		}
		out = append(out, lo)
	}
}

// Reorder computes new ranks for the ids in order, given their current
// ranks. Only ids whose rank no longer fits between their neighbours are
// returned, keyed by id.
func Reorder(existing map[string]string, order []string) map[string]string {
	updates := make(map[string]string, len(order))

	rankOf := func(id string) string {
		if id == "" {
			return ""
		}
		if r, ok := updates[id]; ok {
			return r
		}
		return existing[id]
	}

	for i, id := range order {
		var prevID, nextID string
		if i > 0 {
			prevID = order[i-1]
		}
		if i < len(order)-1 {
			nextID = order[i+1]
		}

		prevRank := rankOf(prevID)
		nextRank := rankOf(nextID)
		current := existing[id]

		if current != "" && IsBetween(prevRank, current, nextRank) {
			continue
		}
		updates[id] = Between(prevRank, nextRank)
	}

	return updates
}
