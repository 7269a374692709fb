package pronounce

import (
	"fmt"
	"slices"
)

// OpTag classifies how a span of the expected sequence maps onto a span of the
// spoken sequence.
type OpTag int

const (
	// OpEqual marks spans of equal length that match element for element.
	OpEqual OpTag = iota

	// OpReplace marks non-empty spans on both sides that do not match. The two
	// spans may differ in length.
	OpReplace

	// OpDelete marks expected elements with no spoken counterpart.
	OpDelete

	// OpInsert marks spoken elements with no expected counterpart.
	OpInsert
)

// String returns the lower-case tag name ("equal", "replace", "delete",
// "insert").
func (t OpTag) String() string {
	switch t {
	case OpEqual:
		return "equal"
	case OpReplace:
		return "replace"
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	default:
		return fmt.Sprintf("OpTag(%d)", int(t))
	}
}

// Op is one step of an edit script. It maps expected[I1:I2] onto spoken[J1:J2].
//
// A complete script returned by [Align] or [Opcodes] covers both sequences
// exactly once and in order: the first op starts at (0, 0), every op starts
// where the previous one ended, and the last op ends at (len(a), len(b)).
type Op struct {
	Tag    OpTag
	I1, I2 int
	J1, J2 int
}

// String renders the op in a compact debugging form, e.g. "replace a[1:2] b[1:3]".
func (o Op) String() string {
	return fmt.Sprintf("%s a[%d:%d] b[%d:%d]", o.Tag, o.I1, o.I2, o.J1, o.J2)
}

// Align computes the edit script that turns the expected word sequence into
// the spoken one. See [Opcodes] for the matching strategy.
func Align(expected, spoken []string) []Op {
	return Opcodes(expected, spoken)
}

// Opcodes returns an edit script between a and b built from a maximal set of
// order-preserving matches.
//
// Matches are found greedily: the longest contiguous block common to both
// windows is taken first (ties go to the block starting earliest in a, then
// earliest in b), and the regions to its left and right are searched
// recursively. Adjacent blocks are merged. Gaps between blocks become
// replace, delete or insert ops; blocks become equal ops. The result is
// deterministic for identical inputs.
//
// Running time is O(len(a)·len(b)) per level of recursion in the worst case,
// which is ample for learner utterances.
func Opcodes[T comparable](a, b []T) []Op {
	blocks := matchingBlocks(a, b)

	var ops []Op
	i, j := 0, 0
	for _, m := range blocks {
		switch {
		case i < m.a && j < m.b:
			ops = append(ops, Op{Tag: OpReplace, I1: i, I2: m.a, J1: j, J2: m.b})
		case i < m.a:
			ops = append(ops, Op{Tag: OpDelete, I1: i, I2: m.a, J1: j, J2: m.b})
		case j < m.b:
			ops = append(ops, Op{Tag: OpInsert, I1: i, I2: m.a, J1: j, J2: m.b})
		}
		i, j = m.a+m.size, m.b+m.size
		if m.size > 0 {
			ops = append(ops, Op{Tag: OpEqual, I1: m.a, I2: i, J1: m.b, J2: j})
		}
	}
	return ops
}

// block is a run of size matching elements starting at a[a] and b[b].
type block struct {
	a, b, size int
}

// matchingBlocks returns the non-overlapping matching runs of a and b in
// increasing order, with adjacent runs merged and a zero-size sentinel at
// (len(a), len(b)) appended.
func matchingBlocks[T comparable](a, b []T) []block {
	// Index every element of b by position so the longest-match search only
	// visits candidate columns.
	b2j := make(map[T][]int, len(b))
	for j, elem := range b {
		b2j[elem] = append(b2j[elem], j)
	}

	type window struct{ alo, ahi, blo, bhi int }
	queue := []window{{0, len(a), 0, len(b)}}

	var found []block
	for len(queue) > 0 {
		w := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, b2j, w.alo, w.ahi, w.blo, w.bhi)
		if m.size == 0 {
			continue
		}
		found = append(found, m)
		if w.alo < m.a && w.blo < m.b {
			queue = append(queue, window{w.alo, m.a, w.blo, m.b})
		}
		if m.a+m.size < w.ahi && m.b+m.size < w.bhi {
			queue = append(queue, window{m.a + m.size, w.ahi, m.b + m.size, w.bhi})
		}
	}

	slices.SortFunc(found, func(x, y block) int {
		if x.a != y.a {
			return x.a - y.a
		}
		return x.b - y.b
	})

	merged := make([]block, 0, len(found)+1)
	for _, m := range found {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.a+last.size == m.a && last.b+last.size == m.b {
				last.size += m.size
				continue
			}
		}
		merged = append(merged, m)
	}
	return append(merged, block{a: len(a), b: len(b)})
}

// longestMatch finds the longest block with a[i:i+k] == b[j:j+k] inside
// a[alo:ahi] and b[blo:bhi]. Among equally long blocks it returns the one
// with the smallest i, and among those the smallest j. A zero-size block at
// (alo, blo) means there is no common element.
func longestMatch[T comparable](a []T, b2j map[T][]int, alo, ahi, blo, bhi int) block {
	best := block{a: alo, b: blo}

	// j2len[j] is the length of the match ending at a[i-1], b[j].
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.size {
				best = block{a: i - k + 1, b: j - k + 1, size: k}
			}
		}
		j2len = next
	}
	return best
}
