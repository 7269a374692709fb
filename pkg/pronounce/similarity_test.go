package pronounce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/linguaccess/pkg/pronounce"
)

func TestRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"cat", "", 0},
		{"cat", "cat", 1},
		{"abcd", "bcde", 0.75},
		{"cat", "cats", 6.0 / 7.0},
		{"quick", "quack", 0.8},
		{"cat", "dog", 0},
		{"naïve", "naive", 0.8},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, pronounce.Ratio(tt.a, tt.b), 1e-9, "Ratio(%q, %q)", tt.a, tt.b)
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, pronounce.LevenshteinSimilarity("", ""), 1e-9)
	assert.InDelta(t, 1-3.0/7.0, pronounce.LevenshteinSimilarity("kitten", "sitting"), 1e-9)
	assert.InDelta(t, 0.0, pronounce.LevenshteinSimilarity("abc", ""), 1e-9)
}

func TestJaroWinklerSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, pronounce.JaroWinklerSimilarity("same", "same"), 1e-9)
	assert.InDelta(t, 0.0, pronounce.JaroWinklerSimilarity("", "x"), 1e-9)

	s := pronounce.JaroWinklerSimilarity("martha", "marhta")
	assert.Greater(t, s, 0.9)
	assert.LessOrEqual(t, s, 1.0)
}

func TestPhoneticSimilarity(t *testing.T) {
	t.Parallel()

	assert.GreaterOrEqual(t, pronounce.PhoneticSimilarity("night", "knight"), pronounce.Ratio("night", "knight"))
	assert.InDelta(t, pronounce.Ratio("cat", "dog"), pronounce.PhoneticSimilarity("cat", "dog"), 1e-9)
	assert.InDelta(t, 0.0, pronounce.PhoneticSimilarity("cat", ""), 1e-9)
}

func TestSimilarityByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "ratio", "levenshtein", "jaro_winkler", "phonetic"} {
		fn, err := pronounce.SimilarityByName(name)
		require.NoError(t, err, name)
		assert.InDelta(t, 1.0, fn("word", "word"), 1e-9, name)
	}

	_, err := pronounce.SimilarityByName("soundex")
	assert.Error(t, err)
}
