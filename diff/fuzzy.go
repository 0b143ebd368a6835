package diff

import (
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// fuzzyShortLimit bounds the strings for which a full edit-distance
// ratio is computed. Longer pairs fall back to a positional proxy so a
// pathological block cannot turn one comparison quadratic.
const fuzzyShortLimit = 30

// Ratio returns a similarity score in [0,1] for two strings. Identical
// strings score 1, an empty string against anything scores 0. Short
// pairs use Levenshtein distance; long pairs approximate with the count
// of characters matching at the same position.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la <= fuzzyShortLimit && lb <= fuzzyShortLimit {
		dist := fuzzy.LevenshteinDistance(a, b)
		longer := la
		if lb > longer {
			longer = lb
		}
		return 1 - float64(dist)/float64(longer)
	}
	shorter := la
	if lb < shorter {
		shorter = lb
	}
	common := 0
	for i := 0; i < shorter; i++ {
		if ra[i] == rb[i] {
			common++
		}
	}
	return 2 * float64(common) / float64(la+lb)
}
