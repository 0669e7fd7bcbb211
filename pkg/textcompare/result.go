package textcompare

// ErrorSummary buckets the classified errors by category and carries the LCS
// similarity ratio as an overall closeness score independent of the
// word-only accuracy.
type ErrorSummary struct {
	// SpellingErrors is the number of Typo items.
	SpellingErrors int `json:"spelling_errors"`

	// MissingWords is the number of Missing items whose reference token is a
	// word (missing punctuation is reported via PunctuationDeltas instead).
	MissingWords int `json:"missing_words"`

	// ExtraWords is the number of Extra items whose candidate token is a word.
	ExtraWords int `json:"extra_words"`

	// PunctuationErrors is the number of punctuation marks whose total
	// counts differ between the two texts.
	PunctuationErrors int `json:"punctuation_errors"`

	// SimilarityScore is the LCS similarity ratio in [0, 1].
	SimilarityScore float64 `json:"similarity_score"`
}

// ComparisonResult is the complete output of one comparison. It is built
// fresh per call and never shared or mutated afterwards.
type ComparisonResult struct {
	// WordsCorrect is the number of Correct items whose token is a word.
	WordsCorrect int `json:"words_correct"`

	// WordsWrong counts word-classified Typo, Missing, and Extra items.
	WordsWrong int `json:"words_wrong"`

	// AccuracyPercentage is WordsCorrect/TotalWords*100 rounded to two
	// decimals, or 0 when the reference contains no words.
	AccuracyPercentage float64 `json:"accuracy_percentage"`

	// TotalWords is the number of word tokens in the reference.
	TotalWords int `json:"total_words"`

	// CandidateWords is the number of word tokens in the candidate.
	CandidateWords int `json:"candidate_words"`

	// Alignment holds one item per token of either sequence, in walk order.
	Alignment []AlignmentItem `json:"alignment"`

	// LCS is the raw aligner output the classification was derived from.
	LCS LCSResult `json:"lcs"`

	// PunctuationDeltas lists marks whose counts differ, ordered by mark.
	PunctuationDeltas []PunctuationDelta `json:"punctuation_deltas"`

	// Summary buckets the errors by category.
	Summary ErrorSummary `json:"error_summary"`
}
