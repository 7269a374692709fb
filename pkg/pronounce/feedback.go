package pronounce

// Feedback messages, highest tier first.
const (
	FeedbackExcellent = "Excellent pronunciation! You sound very natural."
	FeedbackGreat     = "Great job! Just a few words to polish – keep practising!"
	FeedbackGood      = "Good effort! Try listening to the slow version and repeating."
	FeedbackProgress  = "You're making progress! Focus on the highlighted words and try again."
	FeedbackKeepGoing = "Keep going! Every attempt makes you better. Try saying it slowly first."
)

// Feedback maps an overall score to its encouragement message. Each tier's
// lower bound is inclusive.
func Feedback(overall float64) string {
	switch {
	case overall >= 90:
		return FeedbackExcellent
	case overall >= 75:
		return FeedbackGreat
	case overall >= 60:
		return FeedbackGood
	case overall >= 40:
		return FeedbackProgress
	default:
		return FeedbackKeepGoing
	}
}
