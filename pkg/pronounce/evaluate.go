package pronounce

import (
	"fmt"
	"math"
)

// Default tunables. They carry no derivation of their own and exist so
// deployments can override them without changing scoring semantics.
const (
	DefaultSimilarityThreshold = 0.6
	DefaultAccuracyWeight      = 0.7
	DefaultFluencyWeight       = 0.3
)

// Result is the outcome of one evaluation.
type Result struct {
	OverallScore  float64     `json:"overall_score"`
	FluencyScore  float64     `json:"fluency_score"`
	AccuracyScore float64     `json:"accuracy_score"`
	WordErrors    []WordError `json:"word_errors"`
	Feedback      string      `json:"feedback"`
	SpokenText    string      `json:"spoken_text"`
	ExpectedText  string      `json:"expected_text"`
}

// Scorer evaluates utterances against reference phrases. A Scorer is
// immutable once built and safe for concurrent use.
type Scorer struct {
	threshold      float64
	accuracyWeight float64
	fluencyWeight  float64
	similarity     Similarity
}

// Option is a functional option for [NewScorer].
type Option func(*Scorer)

// WithSimilarityThreshold sets the minimum similarity at which a substituted
// word still counts as correct.
func WithSimilarityThreshold(t float64) Option {
	return func(s *Scorer) { s.threshold = t }
}

// WithWeights sets the weights of accuracy and fluency in the overall score.
func WithWeights(accuracy, fluency float64) Option {
	return func(s *Scorer) {
		s.accuracyWeight = accuracy
		s.fluencyWeight = fluency
	}
}

// WithSimilarity replaces the word similarity metric. A nil metric is ignored.
func WithSimilarity(fn Similarity) Option {
	return func(s *Scorer) {
		if fn != nil {
			s.similarity = fn
		}
	}
}

// NewScorer returns a Scorer using the defaults, adjusted by opts.
//
// Returns an error if the threshold is outside [0, 1] or a weight is negative.
func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		threshold:      DefaultSimilarityThreshold,
		accuracyWeight: DefaultAccuracyWeight,
		fluencyWeight:  DefaultFluencyWeight,
		similarity:     Ratio,
	}
	for _, o := range opts {
		o(s)
	}
	if s.threshold < 0 || s.threshold > 1 || math.IsNaN(s.threshold) {
		return nil, fmt.Errorf("pronounce: similarity threshold %v outside [0, 1]", s.threshold)
	}
	if s.accuracyWeight < 0 || s.fluencyWeight < 0 {
		return nil, fmt.Errorf("pronounce: weights must be non-negative (accuracy %v, fluency %v)", s.accuracyWeight, s.fluencyWeight)
	}
	return s, nil
}

var defaultScorer, _ = NewScorer()

// Evaluate scores spoken against expected with the default tunables.
func Evaluate(expected, spoken string) Result {
	return defaultScorer.Evaluate(expected, spoken)
}

// Evaluate scores spoken against expected. Every pair of strings, including
// empty ones, yields a complete Result; placeholder transcripts get no
// special treatment.
func (s *Scorer) Evaluate(expected, spoken string) Result {
	exp := Tokenize(expected)
	spk := Tokenize(spoken)

	errs, credit := s.classify(Align(exp, spk), exp, spk)

	acc := accuracy(credit, len(exp))
	flu := fluency(len(exp), len(spk))
	overall := s.overall(acc, flu, len(exp))

	return Result{
		OverallScore:  round1(overall),
		FluencyScore:  round1(flu),
		AccuracyScore: round1(acc),
		WordErrors:    errs,
		Feedback:      Feedback(overall),
		SpokenText:    spoken,
		ExpectedText:  expected,
	}
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
