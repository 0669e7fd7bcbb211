package textcompare

// ItemKind classifies one alignment slot.
type ItemKind uint8

const (
	// Correct: the token appears in both sequences at LCS-aligned positions.
	Correct ItemKind = iota

	// Typo: a candidate token close enough to a nearby unmatched reference
	// word to be treated as a misspelling of it.
	Typo

	// Missing: a reference token with no counterpart in the candidate.
	Missing

	// Extra: a candidate token with no counterpart in the reference.
	Extra
)

// String returns the lowercase name of the kind.
func (k ItemKind) String() string {
	switch k {
	case Correct:
		return "correct"
	case Typo:
		return "typo"
	case Missing:
		return "missing"
	default:
		return "extra"
	}
}

// MarshalJSON encodes the kind as its string form.
func (k ItemKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// AlignmentItem is one emitted classification. Correct and Typo carry both
// tokens, Missing carries only the reference token, Extra only the candidate
// token. Similarity is populated for Typo items only.
type AlignmentItem struct {
	Kind       ItemKind `json:"kind"`
	Reference  *Token   `json:"reference,omitempty"`
	Candidate  *Token   `json:"candidate,omitempty"`
	Similarity float64  `json:"similarity,omitempty"`
}

// classify walks both token sequences in lockstep with the LCS index pairs
// and emits one AlignmentItem per token: reference tokens end up in exactly
// one Correct, Typo, or Missing item; candidate tokens in exactly one
// Correct, Typo, or Extra item.
//
// The typo check runs before Missing is emitted so that a misspelled word is
// reported once as a Typo pair, not as a separate missing/extra pair.
// Reference positions consumed by a typo pairing are remembered and skipped
// when the walk reaches them.
func (c *Comparer) classify(ref, cand []Token, lcs LCSResult) []AlignmentItem {
	refMatched := make(map[int]bool, len(lcs.RefIndices))
	for _, i := range lcs.RefIndices {
		refMatched[i] = true
	}
	candMatched := make(map[int]bool, len(lcs.CandIndices))
	for _, j := range lcs.CandIndices {
		candMatched[j] = true
	}
	refConsumed := make(map[int]bool)

	items := []AlignmentItem{}
	refIdx, candIdx, cursor := 0, 0, 0

	for refIdx < len(ref) || candIdx < len(cand) {
		// Next pending LCS pair: both tokens are correct.
		if cursor < len(lcs.RefIndices) &&
			lcs.RefIndices[cursor] == refIdx && lcs.CandIndices[cursor] == candIdx {
			items = append(items, AlignmentItem{
				Kind:      Correct,
				Reference: tokenAt(ref, refIdx),
				Candidate: tokenAt(cand, candIdx),
			})
			refIdx++
			candIdx++
			cursor++
			continue
		}

		// Reference position already paired as a typo elsewhere in the walk.
		if refIdx < len(ref) && refConsumed[refIdx] {
			refIdx++
			continue
		}

		// Unmatched candidate token: try to pair it with a nearby unmatched
		// reference word as a typo before anything is declared missing.
		if candIdx < len(cand) && !candMatched[candIdx] {
			if typoIdx, ok := c.findTypo(ref, refMatched, refConsumed, refIdx, cand[candIdx]); ok {
				items = append(items, AlignmentItem{
					Kind:       Typo,
					Reference:  tokenAt(ref, typoIdx),
					Candidate:  tokenAt(cand, candIdx),
					Similarity: Similarity(ref[typoIdx].Text, cand[candIdx].Text),
				})
				refConsumed[typoIdx] = true
				if typoIdx == refIdx {
					refIdx++
				}
				candIdx++
				continue
			}
		}

		// Reference token with no counterpart: missing from the candidate.
		// Marking it consumed keeps later typo searches from pairing a
		// candidate with a reference token that was already reported.
		if refIdx < len(ref) && !refMatched[refIdx] {
			items = append(items, AlignmentItem{
				Kind:      Missing,
				Reference: tokenAt(ref, refIdx),
			})
			refConsumed[refIdx] = true
			refIdx++
			continue
		}

		// Candidate token with no counterpart anywhere: extra.
		if candIdx < len(cand) && !candMatched[candIdx] {
			items = append(items, AlignmentItem{
				Kind:      Extra,
				Candidate: tokenAt(cand, candIdx),
			})
			candIdx++
			continue
		}

		// Both positions belong to LCS pairs that are not yet pending;
		// advance whatever remains so the walk terminates.
		if refIdx < len(ref) {
			refIdx++
		}
		if candIdx < len(cand) {
			candIdx++
		}
	}
	return items
}

// findTypo searches the reference window around refIdx for an unmatched,
// unconsumed Word token similar to the candidate token. Punctuation tokens
// are never typo candidates, on either side.
func (c *Comparer) findTypo(ref []Token, refMatched, refConsumed map[int]bool, refIdx int, cand Token) (int, bool) {
	if cand.Kind != Word {
		return 0, false
	}

	start := refIdx - c.window
	if start < 0 {
		start = 0
	}
	end := refIdx + c.window + 1
	if end > len(ref) {
		end = len(ref)
	}

	for i := start; i < end; i++ {
		if refMatched[i] || refConsumed[i] || ref[i].Kind != Word {
			continue
		}
		if IsSimilar(ref[i].Text, cand.Text, c.threshold) {
			return i, true
		}
	}
	return 0, false
}

// tokenAt returns a pointer to a copy of tokens[i], keeping emitted items
// independent of the caller's slice.
func tokenAt(tokens []Token, i int) *Token {
	t := tokens[i]
	return &t
}
