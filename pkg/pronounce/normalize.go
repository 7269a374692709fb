package pronounce

import (
	"strings"
	"unicode"
)

// Normalize lower-cases text, drops every rune that is neither a word
// character nor whitespace, collapses whitespace runs to a single space and
// trims the result.
//
// Word characters are letters, numbers and the underscore, matching a
// Unicode-aware \w. Combining marks are not word characters, so vowel signs
// and viramas in scripts such as Tamil or Devanagari are dropped.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case isWordRune(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize normalises text and splits it into words. The result is empty (not
// nil-checked by callers) when text contains no word characters.
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
