// Package textcompare scores a freeform transcription or typed text against
// a reference text and produces an explainable error report: which tokens
// were correct, which were typos, which were missing or extra, and how the
// punctuation differed.
//
// The comparison proceeds in stages:
//
//  1. Both texts are normalized ([Normalize]) and tokenised ([Tokenize])
//     into mixed word/punctuation sequences.
//  2. The longest common subsequence of the two sequences is computed over
//     case-insensitive token equality; matched tokens are correct regardless
//     of how far they shifted positionally.
//  3. Unmatched tokens are classified: candidate tokens similar to a nearby
//     unmatched reference word (Levenshtein ratio ≥ threshold) become typos,
//     the rest become missing/extra.
//  4. Word-only counts and an accuracy percentage are aggregated, and
//     punctuation counts are compared independently of position.
//
// The package holds no mutable state; a [Comparer] is safe for concurrent
// use and [Compare] may be called from any number of goroutines. The LCS
// table is the dominant cost at O(m·n) time and space in the token counts —
// callers needing sub-second results on very long passages should cap the
// passage length.
package textcompare

import "math"

// DefaultTypoWindow is how many reference positions to search on either side
// of the walk position when pairing an unmatched candidate word with a
// reference word as a typo.
const DefaultTypoWindow = 2

// Option is a functional option for configuring a [Comparer].
type Option func(*Comparer)

// WithSimilarityThreshold sets the minimum similarity ratio for typo
// pairing. Default: [DefaultSimilarityThreshold].
func WithSimilarityThreshold(threshold float64) Option {
	return func(c *Comparer) {
		c.threshold = threshold
	}
}

// WithTypoWindow sets how many reference positions on either side of the
// walk position are searched for typo candidates. Default:
// [DefaultTypoWindow].
func WithTypoWindow(window int) Option {
	return func(c *Comparer) {
		c.window = window
	}
}

// Comparer runs reference/candidate comparisons with fixed tuning. It is
// read-only after construction and safe for concurrent use.
type Comparer struct {
	threshold float64
	window    int
}

// New returns a [Comparer] configured with the supplied options.
func New(opts ...Option) *Comparer {
	c := &Comparer{
		threshold: DefaultSimilarityThreshold,
		window:    DefaultTypoWindow,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// defaultComparer backs the package-level [Compare].
var defaultComparer = New()

// Compare scores candidate against reference using the default tuning.
func Compare(reference, candidate string) ComparisonResult {
	return defaultComparer.Compare(reference, candidate)
}

// Compare scores candidate against reference. It is total: any pair of
// strings yields a result, never an error. An empty reference or candidate
// short-circuits to a zero-valued result without running alignment.
func (c *Comparer) Compare(reference, candidate string) ComparisonResult {
	if reference == "" || candidate == "" {
		return emptyResult()
	}

	refText := Normalize(reference)
	candText := Normalize(candidate)

	refTokens := Tokenize(refText)
	candTokens := Tokenize(candText)

	lcs := alignLCS(refTokens, candTokens)
	alignment := c.classify(refTokens, candTokens, lcs)
	deltas := punctuationDeltas(refText, candText)

	return score(refTokens, candTokens, alignment, lcs, deltas)
}

// score aggregates the classified alignment into the final result.
func score(ref, cand []Token, alignment []AlignmentItem, lcs LCSResult, deltas []PunctuationDelta) ComparisonResult {
	res := ComparisonResult{
		TotalWords:        countWords(ref),
		CandidateWords:    countWords(cand),
		Alignment:         alignment,
		LCS:               lcs,
		PunctuationDeltas: deltas,
	}

	for _, item := range alignment {
		switch item.Kind {
		case Correct:
			if item.Reference.Kind == Word {
				res.WordsCorrect++
			}
		case Typo:
			res.Summary.SpellingErrors++
			if item.Reference.Kind == Word {
				res.WordsWrong++
			}
		case Missing:
			if item.Reference.Kind == Word {
				res.WordsWrong++
				res.Summary.MissingWords++
			}
		case Extra:
			if item.Candidate.Kind == Word {
				res.WordsWrong++
				res.Summary.ExtraWords++
			}
		}
	}

	if res.TotalWords > 0 {
		pct := float64(res.WordsCorrect) / float64(res.TotalWords) * 100
		res.AccuracyPercentage = math.Round(pct*100) / 100
	}
	res.Summary.PunctuationErrors = len(deltas)
	res.Summary.SimilarityScore = lcs.SimilarityRatio
	return res
}

// countWords returns the number of Word tokens in tokens.
func countWords(tokens []Token) int {
	n := 0
	for _, t := range tokens {
		if t.Kind == Word {
			n++
		}
	}
	return n
}

// emptyResult is the defined degenerate result for empty input: all counts
// zero, empty alignment, empty deltas.
func emptyResult() ComparisonResult {
	return ComparisonResult{
		Alignment: []AlignmentItem{},
		LCS: LCSResult{
			MatchedTokens: []string{},
			RefIndices:    []int{},
			CandIndices:   []int{},
		},
		PunctuationDeltas: []PunctuationDelta{},
	}
}
