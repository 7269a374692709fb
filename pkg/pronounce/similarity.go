package pronounce

import (
	"fmt"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Similarity scores how close a spoken word is to the expected one. Results
// are in [0, 1] where 1 means identical. Implementations must be pure.
type Similarity func(expected, spoken string) float64

// Names accepted by [SimilarityByName].
const (
	SimilarityRatioName       = "ratio"
	SimilarityLevenshteinName = "levenshtein"
	SimilarityJaroWinklerName = "jaro_winkler"
	SimilarityPhoneticName    = "phonetic"
)

// SimilarityByName resolves a configured metric name. The empty string
// selects [Ratio].
func SimilarityByName(name string) (Similarity, error) {
	switch name {
	case "", SimilarityRatioName:
		return Ratio, nil
	case SimilarityLevenshteinName:
		return LevenshteinSimilarity, nil
	case SimilarityJaroWinklerName:
		return JaroWinklerSimilarity, nil
	case SimilarityPhoneticName:
		return PhoneticSimilarity, nil
	default:
		return nil, fmt.Errorf("pronounce: unknown similarity metric %q", name)
	}
}

// Ratio returns 2·M/T where M is the number of runes in the matching blocks
// of a and b (see [Opcodes]) and T is the total rune count of both strings.
// Two empty strings are identical and score 1.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	matched := 0
	for _, m := range matchingBlocks(ra, rb) {
		matched += m.size
	}
	return 2 * float64(matched) / float64(total)
}

// LevenshteinSimilarity returns 1 - d/max(len(a), len(b)) where d is the
// Levenshtein edit distance in runes.
func LevenshteinSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	d := matchr.Levenshtein(a, b)
	return clamp(1-float64(d)/float64(longest), 0, 1)
}

// JaroWinklerSimilarity returns the standard Jaro-Winkler similarity.
func JaroWinklerSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return clamp(matchr.JaroWinkler(a, b, false), 0, 1)
}

// PhoneticSimilarity is [Ratio] for words that sound different. When the
// Double Metaphone codes of the two words overlap (e.g. "night" and
// "knight"), the higher of the ratio and the Jaro-Winkler score is used so
// homophones with different spelling are not marked wrong.
func PhoneticSimilarity(a, b string) float64 {
	r := Ratio(a, b)
	if a == "" || b == "" || !soundAlike(a, b) {
		return r
	}
	return max(r, JaroWinklerSimilarity(a, b))
}

func soundAlike(a, b string) bool {
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || x == bs {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
