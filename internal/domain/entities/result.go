package entities

// ClassificationStat counts correct answers within one classification.
type ClassificationStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Percent returns the share of correct answers, 0 when there are no questions.
func (s ClassificationStat) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total) * 100
}

// IncorrectAnswer records a question the student actively answered wrong.
type IncorrectAnswer struct {
	Index      int      `json:"index"` // zero-based position in the session
	Question   Question `json:"question"`
	UserAnswer string   `json:"user_answer"`
}

// ScoreResult is the outcome of scoring a session.
type ScoreResult struct {
	Score            int                           `json:"score"`
	Correct          int                           `json:"correct"`
	Total            int                           `json:"total"`
	Answered         int                           `json:"answered"`
	Classifications  []string                      `json:"classifications"` // in order of first appearance
	ByClassification map[string]ClassificationStat `json:"by_classification"`
	Incorrect        []IncorrectAnswer             `json:"incorrect,omitempty"`
}

// Passed reports whether the score reaches the passing threshold.
func (r ScoreResult) Passed(passingScore int) bool {
	return r.Score >= passingScore
}

// Status returns the human-readable pass/fail label.
func (r ScoreResult) Status(passingScore int) string {
	if r.Passed(passingScore) {
		return StatusPassed
	}
	return StatusNotPassed
}

const (
	StatusPassed    = "Passed"
	StatusNotPassed = "Not Passed"
)
