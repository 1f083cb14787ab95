package service

import (
	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

const (
	// MaxScore is awarded for a perfect exam.
	MaxScore = 700
	// BreakpointScore is awarded at exactly 75% correct.
	BreakpointScore = 555
)

// ScaledScore maps correct/total onto 0..700, linear up to 555 at 75% and
// linear from there to 700 at 100%. Fractions are truncated.
//
// Integer form of x*555/0.75 and 555+(x-0.75)*580 with x = correct/total.
func ScaledScore(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	if correct > total {
		correct = total
	}
	if 4*correct <= 3*total {
		return 740 * correct / total
	}
	return (120*total + 580*correct) / total
}

// ScoreSession tallies a session's answers and computes its scaled score.
// Unanswered questions count toward the total but are not reported as incorrect.
func ScoreSession(session *entities.ExamSession) entities.ScoreResult {
	result := entities.ScoreResult{
		Total:            len(session.Questions),
		Classifications:  make([]string, 0),
		ByClassification: make(map[string]entities.ClassificationStat),
	}

	for i, q := range session.Questions {
		class := classificationOf(q)
		stat, seen := result.ByClassification[class]
		if !seen {
			result.Classifications = append(result.Classifications, class)
		}
		stat.Total++

		answer, answered := session.AnswerAt(i)
		switch {
		case !answered:
		case q.IsCorrect(answer):
			result.Answered++
			result.Correct++
			stat.Correct++
		default:
			result.Answered++
			result.Incorrect = append(result.Incorrect, entities.IncorrectAnswer{
				Index:      i,
				Question:   q,
				UserAnswer: answer,
			})
		}
		result.ByClassification[class] = stat
	}

	result.Score = ScaledScore(result.Correct, result.Total)
	return result
}
