// Package pronounce scores a learner's spoken utterance against the phrase they
// were asked to say.
//
// The engine works on text only. Both phrases are normalised and split into
// words, the two word sequences are aligned with a longest-matching-block
// diff, and every expected word is classified as correct or incorrect. Words
// the learner substituted can still earn partial credit when they are close
// enough to the expected word. Per-word credit becomes an accuracy score, the
// ratio of spoken to expected words becomes a fluency score, and the two are
// blended into an overall score that selects one of five encouragement
// messages.
//
// Typical usage:
//
//	res := pronounce.Evaluate("I really like cats", "I like cats")
//	fmt.Println(res.OverallScore) // 73.5
//
// Everything in this package is pure: a [Scorer] is immutable once built and
// may be shared by any number of goroutines.
package pronounce
