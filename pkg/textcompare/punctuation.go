package textcompare

import "sort"

// PunctuationDelta reports a punctuation mark whose total count differs
// between the reference and candidate texts. Position is deliberately
// ignored: a mark moved elsewhere in the sentence is not an error, only a
// surplus or deficit in total count is.
type PunctuationDelta struct {
	Mark           string `json:"mark"`
	ReferenceCount int    `json:"reference_count"`
	CandidateCount int    `json:"candidate_count"`
}

// punctuationDeltas counts each recognised punctuation mark in both
// normalized texts and returns one delta per mark whose counts differ,
// ordered by mark for stable output.
func punctuationDeltas(refText, candText string) []PunctuationDelta {
	refCounts := countMarks(refText)
	candCounts := countMarks(candText)

	deltas := []PunctuationDelta{}
	for _, mark := range punctuationMarks {
		m := string(mark)
		rc, cc := refCounts[m], candCounts[m]
		if rc != cc {
			deltas = append(deltas, PunctuationDelta{
				Mark:           m,
				ReferenceCount: rc,
				CandidateCount: cc,
			})
		}
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Mark < deltas[j].Mark })
	return deltas
}

// countMarks tallies occurrences of each recognised punctuation mark in text.
func countMarks(text string) map[string]int {
	counts := make(map[string]int, len(punctuationMarks))
	for _, r := range text {
		if isPunctuationRune(r) {
			counts[string(r)]++
		}
	}
	return counts
}
