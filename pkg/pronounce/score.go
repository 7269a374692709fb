package pronounce

// Fluency band scores keyed on the spoken/expected word-count ratio.
const (
	fluencyFull    = 100.0
	fluencyPartial = 70.0
	fluencyLow     = 40.0
)

// accuracy is the average credit per expected word as a percentage. An empty
// expected phrase counts as one word so the result is 0 rather than NaN.
func accuracy(credit float64, expected int) float64 {
	return clamp(credit/float64(max(expected, 1))*100, 0, 100)
}

// fluency scores pacing from word counts alone. Bands are inclusive and
// checked in order.
func fluency(expected, spoken int) float64 {
	if expected == 0 {
		return fluencyFull
	}
	ratio := float64(spoken) / float64(expected)
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return fluencyFull
	case ratio >= 0.5 && ratio <= 1.5:
		return fluencyPartial
	default:
		return fluencyLow
	}
}

// overall blends accuracy and fluency. With nothing to compare against there
// is no meaningful score, so an empty expected phrase yields 0 even though its
// fluency is reported as full.
func (s *Scorer) overall(acc, flu float64, expected int) float64 {
	if expected == 0 {
		return 0
	}
	return clamp(acc*s.accuracyWeight+flu*s.fluencyWeight, 0, 100)
}
