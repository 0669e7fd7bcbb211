package textcompare

import "strings"

// LCSResult describes the longest common subsequence of two token sequences.
// RefIndices[k] and CandIndices[k] are the positions of the k-th matched
// token in the reference and candidate sequences; both lists are strictly
// increasing and always of equal length.
type LCSResult struct {
	// Length is the number of matched tokens.
	Length int `json:"length"`

	// MatchedTokens lists the matched token texts, lowercased, in order.
	MatchedTokens []string `json:"matched_tokens"`

	RefIndices  []int `json:"ref_indices"`
	CandIndices []int `json:"cand_indices"`

	// SimilarityRatio is Length divided by the longer sequence length.
	// Two empty sequences count as identical (ratio 1).
	SimilarityRatio float64 `json:"similarity_ratio"`
}

// alignLCS computes the longest common subsequence of ref and cand under
// case-insensitive token-text equality, using the standard O(m·n) dynamic
// programming table.
//
// Backtracking from (m, n) resolves ties deterministically: when the cell
// above strictly exceeds the cell to the left, the reference index steps
// back, otherwise the candidate index does. When several maximum-length
// subsequences exist this fixed rule decides which one is reported, and the
// classifier's output depends on it, so it must not change.
func alignLCS(ref, cand []Token) LCSResult {
	m, n := len(ref), len(cand)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if strings.EqualFold(ref[i-1].Text, cand[j-1].Text) {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	length := dp[m][n]
	matched := make([]string, 0, length)
	refIdx := make([]int, 0, length)
	candIdx := make([]int, 0, length)

	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case strings.EqualFold(ref[i-1].Text, cand[j-1].Text):
			matched = append(matched, strings.ToLower(ref[i-1].Text))
			refIdx = append(refIdx, i-1)
			candIdx = append(candIdx, j-1)
			i--
			j--
		case dp[i-1][j] > dp[i][j-1]:
			i--
		default:
			j--
		}
	}

	reverseStrings(matched)
	reverseInts(refIdx)
	reverseInts(candIdx)

	ratio := 1.0
	if longer := max(m, n); longer > 0 {
		ratio = float64(length) / float64(longer)
	}

	return LCSResult{
		Length:          length,
		MatchedTokens:   matched,
		RefIndices:      refIdx,
		CandIndices:     candIdx,
		SimilarityRatio: ratio,
	}
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
