package textcompare

import "unicode"

// punctuationMarks is the set of punctuation characters that become their own
// tokens. Characters outside this set and outside word runs are separators.
const punctuationMarks = `,.!?;:"'`

// TokenKind distinguishes word tokens from punctuation tokens. Only Word
// tokens count toward the word-accuracy score; the aligner itself treats all
// tokens uniformly.
type TokenKind uint8

const (
	// Word is a maximal run of alphanumeric characters.
	Word TokenKind = iota

	// Punctuation is a single mark from the recognised punctuation set.
	Punctuation
)

// String returns "word" or "punctuation".
func (k TokenKind) String() string {
	if k == Punctuation {
		return "punctuation"
	}
	return "word"
}

// MarshalJSON encodes the kind as its string form.
func (k TokenKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Token is the atomic unit of alignment: a word or a single punctuation mark,
// with its 0-based position in the sequence it was tokenised from. Tokens
// preserve the original casing; case-insensitive comparison happens in the
// aligner and the edit-distance matcher only.
type Token struct {
	Text     string    `json:"text"`
	Kind     TokenKind `json:"kind"`
	Position int       `json:"position"`
}

// Tokenize splits normalized text into an ordered token sequence. Maximal
// alphanumeric runs become Word tokens, single characters from the
// punctuation set become Punctuation tokens, and everything else separates
// tokens without producing one. Tokenizing the empty string yields an empty
// sequence.
func Tokenize(text string) []Token {
	tokens := []Token{}
	runes := []rune(text)

	i := 0
	for i < len(runes) {
		switch {
		case isWordRune(runes[i]):
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{
				Text:     string(runes[start:i]),
				Kind:     Word,
				Position: len(tokens),
			})
		case isPunctuationRune(runes[i]):
			tokens = append(tokens, Token{
				Text:     string(runes[i]),
				Kind:     Punctuation,
				Position: len(tokens),
			})
			i++
		default:
			i++
		}
	}
	return tokens
}

// isWordRune reports whether r belongs to a word token. Mirrors the \w
// character class: letters, digits, and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isPunctuationRune reports whether r is a recognised punctuation mark.
func isPunctuationRune(r rune) bool {
	for _, p := range punctuationMarks {
		if r == p {
			return true
		}
	}
	return false
}
