package search

import (
	"strings"

	domdoc "github.com/scentlab/scentdex/internal/domain/document"
	"github.com/scentlab/scentdex/internal/domain/preference"
)

// Similarity weights. Accords carry the most signal about how a perfume
// actually smells, shared notes and brand less, era proximity the least.
const (
	accordWeight = 3.0
	noteWeight   = 2.0
	brandWeight  = 2.5
	yearWeight   = 1.0

	similarYearWindow = 5
)

// similarityScore sums the weights of every dimension shared between the
// reference and the candidate. Counts matter: two shared accords score twice
// one.
func similarityScore(ref, cand *domdoc.Document) float64 {
	var score float64

	score += accordWeight * float64(countShared(ref.AccordNames, cand.AccordNames))
	score += noteWeight * float64(countShared(ref.NoteTokens, cand.NoteTokens))

	if ref.BrandName != "" && strings.EqualFold(ref.BrandName, cand.BrandName) {
		score += brandWeight
	}

	if ref.ReleaseYear != 0 && cand.ReleaseYear != 0 {
		diff := ref.ReleaseYear - cand.ReleaseYear
		if diff < 0 {
			diff = -diff
		}
		if diff <= similarYearWindow {
			score += yearWeight
		}
	}

	return score
}

// preferenceScore is the sum of vector weights the candidate matches,
// normalized by the number of matched dimensions so a perfume strong on two
// dimensions beats one thinly touching many.
func preferenceScore(v preference.Vector, cand *domdoc.Document) float64 {
	var sum float64
	var dims int

	if s := matchedWeight(v.Notes, cand.NoteNames); s > 0 {
		sum += s
		dims++
	}
	if s := matchedWeight(v.Accords, cand.AccordNames); s > 0 {
		sum += s
		dims++
	}
	if cand.BrandName != "" {
		if w, ok := v.Brands[strings.ToLower(cand.BrandName)]; ok && w > 0 {
			sum += w
			dims++
		}
	}

	if dims == 0 {
		return 0
	}
	return sum / float64(dims)
}

// matchedWeight sums the weights of candidate values present in the map.
// Candidate slices are already lowercased by the mapper.
func matchedWeight(weights map[string]float64, values []string) float64 {
	if len(weights) == 0 {
		return 0
	}
	var sum float64
	for _, val := range values {
		if w, ok := weights[val]; ok && w > 0 {
			sum += w
		}
	}
	return sum
}

// countShared counts values of a present in b. Inputs are sorted, deduped
// and lowercased by the mapper, so a set walk suffices.
func countShared(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	n := 0
	for _, v := range a {
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}
