package pronounce

// WordError reports how one expected word was pronounced.
type WordError struct {
	// Word is the display value; it always equals Expected.
	Word     string `json:"word"`
	Expected string `json:"expected"`
	// Spoken is the aligned spoken word, or "" if nothing was said for it.
	Spoken    string `json:"spoken"`
	Position  int    `json:"position"`
	IsCorrect bool   `json:"is_correct"`
}

// classify walks ops and returns exactly one WordError per expected word in
// position order, along with the accumulated credit. Inserted spoken words
// produce no entries and no credit.
func (s *Scorer) classify(ops []Op, expected, spoken []string) ([]WordError, float64) {
	errs := make([]WordError, 0, len(expected))
	var credit float64

	for _, op := range ops {
		switch op.Tag {
		case OpEqual:
			for k := range op.I2 - op.I1 {
				errs = append(errs, word(expected, op.I1+k, spoken[op.J1+k], true))
				credit++
			}

		case OpReplace:
			for k := range op.I2 - op.I1 {
				said := ""
				if op.J1+k < op.J2 {
					said = spoken[op.J1+k]
				}
				sim := s.similarity(expected[op.I1+k], said)
				ok := sim >= s.threshold
				if ok {
					credit += sim
				}
				errs = append(errs, word(expected, op.I1+k, said, ok))
			}

		case OpDelete:
			for i := op.I1; i < op.I2; i++ {
				errs = append(errs, word(expected, i, "", false))
			}

		case OpInsert:
			// Extra spoken words are neither scored nor reported.
		}
	}
	return errs, credit
}

func word(expected []string, pos int, spoken string, ok bool) WordError {
	return WordError{
		Word:      expected[pos],
		Expected:  expected[pos],
		Spoken:    spoken,
		Position:  pos,
		IsCorrect: ok,
	}
}
