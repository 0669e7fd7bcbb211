package textcompare

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// DefaultSimilarityThreshold is the minimum [Similarity] ratio at which two
// unequal tokens are treated as a typo pair rather than as an independent
// missing/extra pair. It is the single knob controlling how aggressive typo
// detection is.
const DefaultSimilarityThreshold = 0.7

// Distance returns the Levenshtein distance between a and b, compared
// case-insensitively. Insertions, deletions, and substitutions all cost 1.
func Distance(a, b string) int {
	return matchr.Levenshtein(strings.ToLower(a), strings.ToLower(b))
}

// Similarity returns 1 - Distance(a,b)/max(len(a), len(b)), a ratio in
// [0, 1] where 1 means equal (ignoring case). Two empty strings are treated
// as identical.
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(maxLen)
}

// IsSimilar reports whether a and b are close enough to be considered a typo
// of one another: equal case-insensitively, or with a [Similarity] ratio of
// at least threshold.
func IsSimilar(a, b string, threshold float64) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	return Similarity(a, b) >= threshold
}
