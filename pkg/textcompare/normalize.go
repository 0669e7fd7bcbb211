package textcompare

import (
	"regexp"
	"strings"
)

// Normalisation patterns, applied in order by [Normalize]. The replacement
// order matters: spacing around straight marks is fixed before smart quotes
// are mapped, and whitespace collapsing runs last.
var (
	spaceBeforeMark = regexp.MustCompile(`\s+([,.!?;:"'])`)
	spaceAfterMark  = regexp.MustCompile(`([,.!?;:"'])\s*`)
	smartDoubles    = regexp.MustCompile("[“”]")
	smartSingles    = regexp.MustCompile("[‘’]")
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Normalize canonicalises whitespace and punctuation spacing in text so that
// purely typographic differences do not register as errors downstream:
//
//  1. Whitespace preceding a punctuation mark is removed.
//  2. Each punctuation mark is followed by exactly one space.
//  3. Smart double quotes become straight double quotes; smart single
//     quotes and apostrophes become straight apostrophes.
//  4. Runs of whitespace collapse to a single space.
//  5. Leading and trailing whitespace is trimmed.
//
// The empty string normalizes to the empty string.
func Normalize(text string) string {
	text = spaceBeforeMark.ReplaceAllString(text, "${1}")
	text = spaceAfterMark.ReplaceAllString(text, "${1} ")
	text = smartDoubles.ReplaceAllString(text, `"`)
	text = smartSingles.ReplaceAllString(text, "'")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
