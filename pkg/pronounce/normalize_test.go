package pronounce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrWong99/linguaccess/pkg/pronounce"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \t\n ", want: ""},
		{name: "case and punctuation", in: "Hello, World!", want: "hello world"},
		{name: "collapses whitespace", in: "  I   like\tcats. ", want: "i like cats"},
		{name: "apostrophe removed without split", in: "Don't stop", want: "dont stop"},
		{name: "hyphen between spaces", in: "well - done", want: "well done"},
		{name: "underscore and digits kept", in: "snake_case 42", want: "snake_case 42"},
		{name: "accents kept", in: "Café Ñandú", want: "café ñandú"},
		{name: "combining marks dropped", in: "வணக்கம் நண்பா", want: "வணககம நணப"},
		{name: "placeholder sentinel", in: "[transcription unavailable – connect ASR service]", want: "transcription unavailable connect asr service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pronounce.Normalize(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"i", "like", "cats"}, pronounce.Tokenize("I like... CATS!"))
	assert.Empty(t, pronounce.Tokenize("?!"))
}
