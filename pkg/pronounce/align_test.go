package pronounce_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/linguaccess/pkg/pronounce"
)

func op(tag pronounce.OpTag, i1, i2, j1, j2 int) pronounce.Op {
	return pronounce.Op{Tag: tag, I1: i1, I2: i2, J1: j1, J2: j2}
}

func TestAlign(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		spoken   string
		want     []pronounce.Op
	}{
		{
			name: "both empty",
			want: nil,
		},
		{
			name:   "empty expected",
			spoken: "a b",
			want:   []pronounce.Op{op(pronounce.OpInsert, 0, 0, 0, 2)},
		},
		{
			name:     "empty spoken",
			expected: "a",
			want:     []pronounce.Op{op(pronounce.OpDelete, 0, 1, 0, 0)},
		},
		{
			name:     "identical",
			expected: "i like cats",
			spoken:   "i like cats",
			want:     []pronounce.Op{op(pronounce.OpEqual, 0, 3, 0, 3)},
		},
		{
			name:     "deletion",
			expected: "i really like cats",
			spoken:   "i like cats",
			want: []pronounce.Op{
				op(pronounce.OpEqual, 0, 1, 0, 1),
				op(pronounce.OpDelete, 1, 2, 1, 1),
				op(pronounce.OpEqual, 2, 4, 1, 3),
			},
		},
		{
			name:     "insertions around match",
			expected: "hello",
			spoken:   "oh hello there",
			want: []pronounce.Op{
				op(pronounce.OpInsert, 0, 0, 0, 1),
				op(pronounce.OpEqual, 0, 1, 1, 2),
				op(pronounce.OpInsert, 1, 1, 2, 3),
			},
		},
		{
			name:     "uneven replace",
			expected: "the quick brown fox",
			spoken:   "the quack fox",
			want: []pronounce.Op{
				op(pronounce.OpEqual, 0, 1, 0, 1),
				op(pronounce.OpReplace, 1, 3, 1, 2),
				op(pronounce.OpEqual, 3, 4, 2, 3),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := pronounce.Align(strings.Fields(tt.expected), strings.Fields(tt.spoken))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpcodes_MatchesKnownDiff(t *testing.T) {
	t.Parallel()

	got := pronounce.Opcodes([]rune("qabxcd"), []rune("abycdf"))
	want := []pronounce.Op{
		op(pronounce.OpDelete, 0, 1, 0, 0),
		op(pronounce.OpEqual, 1, 3, 0, 2),
		op(pronounce.OpReplace, 3, 4, 2, 3),
		op(pronounce.OpEqual, 4, 6, 3, 5),
		op(pronounce.OpInsert, 6, 6, 5, 6),
	}
	assert.Equal(t, want, got)
}

func TestOpcodes_TiePrefersEarliestBlock(t *testing.T) {
	t.Parallel()

	// "ab" and "cd" are equally long; the block earlier in a wins first.
	got := pronounce.Opcodes([]rune("abxcd"), []rune("abcd"))
	want := []pronounce.Op{
		op(pronounce.OpEqual, 0, 2, 0, 2),
		op(pronounce.OpDelete, 2, 3, 2, 2),
		op(pronounce.OpEqual, 3, 5, 2, 4),
	}
	assert.Equal(t, want, got)
}

func TestOpTag_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "equal", pronounce.OpEqual.String())
	assert.Equal(t, "replace", pronounce.OpReplace.String())
	assert.Equal(t, "delete", pronounce.OpDelete.String())
	assert.Equal(t, "insert", pronounce.OpInsert.String())
	assert.Equal(t, "OpTag(9)", pronounce.OpTag(9).String())
	assert.Equal(t, "replace a[1:3] b[1:2]", op(pronounce.OpReplace, 1, 3, 1, 2).String())
}

// TestAlign_Coverage checks on random word sequences that the ops tile both
// inputs exactly and that every tag has the shape its name promises.
func TestAlign_Coverage(t *testing.T) {
	t.Parallel()

	vocab := []string{"a", "b", "c", "d", "e"}
	rng := rand.New(rand.NewPCG(7, 11))
	words := func() []string {
		n := rng.IntN(12)
		out := make([]string, n)
		for i := range out {
			out[i] = vocab[rng.IntN(len(vocab))]
		}
		return out
	}

	for range 500 {
		exp, spk := words(), words()
		ops := pronounce.Align(exp, spk)

		i, j := 0, 0
		for _, o := range ops {
			require.Equal(t, i, o.I1, "expected range gap or overlap in %v", ops)
			require.Equal(t, j, o.J1, "spoken range gap or overlap in %v", ops)
			switch o.Tag {
			case pronounce.OpEqual:
				require.Equal(t, o.I2-o.I1, o.J2-o.J1)
				require.Equal(t, exp[o.I1:o.I2], spk[o.J1:o.J2])
			case pronounce.OpReplace:
				require.Greater(t, o.I2, o.I1)
				require.Greater(t, o.J2, o.J1)
			case pronounce.OpDelete:
				require.Greater(t, o.I2, o.I1)
				require.Equal(t, o.J1, o.J2)
			case pronounce.OpInsert:
				require.Equal(t, o.I1, o.I2)
				require.Greater(t, o.J2, o.J1)
			}
			i, j = o.I2, o.J2
		}
		require.Equal(t, len(exp), i)
		require.Equal(t, len(spk), j)
	}
}
