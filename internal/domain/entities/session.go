package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQuestionsAlreadySet = errors.New("questions already set for session")
	ErrEmptyQuestionSet    = errors.New("session needs at least one question")
	ErrQuestionOutOfRange  = errors.New("question index out of range")
	ErrUnknownOption       = errors.New("answer is not one of the question options")
	ErrSessionEnded        = errors.New("exam session has ended")
)

// SessionStatus is the lifecycle state of an exam session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// ExamSession is the state of a single student's exam.
// It is owned by the caller and passed by reference into services.
type ExamSession struct {
	ID        uuid.UUID         `json:"id"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Type      ExamType          `json:"exam_type"`
	Questions []Question        `json:"questions"`          // fixed once set
	Answers   Answers           `json:"answers"`            // stringified zero-based index -> chosen option
	Marked    []int             `json:"marked,omitempty"`   // indices flagged for review
	StartedAt time.Time         `json:"started_at"`         // zero until questions are set
	Status    SessionStatus     `json:"status"`             // active or ended
	EndedAt   *time.Time        `json:"ended_at,omitempty"` // set on the first transition to ended
}

// Answers maps a stringified zero-based question index to the chosen option.
// A missing key means the question is unanswered.
type Answers map[string]string

// UnmarshalJSON drops null entries so they decode as unanswered.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Answers, len(raw))
	for index, answer := range raw {
		if answer != nil {
			out[index] = *answer
		}
	}
	*a = out
	return nil
}

// NewExamSession creates an active session for an authenticated student.
func NewExamSession(email string, examType ExamType) *ExamSession {
	return &ExamSession{
		ID:      uuid.New(),
		Email:   email,
		Type:    examType,
		Answers: make(Answers),
		Status:  SessionActive,
	}
}

// SetQuestions fixes the question list and starts the clock.
func (s *ExamSession) SetQuestions(questions []Question, startedAt time.Time) error {
	if len(s.Questions) > 0 {
		return ErrQuestionsAlreadySet
	}
	if len(questions) == 0 {
		return ErrEmptyQuestionSet
	}
	s.Questions = questions
	s.StartedAt = startedAt
	if s.Answers == nil {
		s.Answers = make(Answers)
	}
	return nil
}

// Answer records option as the answer to question index.
func (s *ExamSession) Answer(index int, option string) error {
	if s.Ended() {
		return ErrSessionEnded
	}
	q, err := s.question(index)
	if err != nil {
		return err
	}
	if !q.HasOption(option) {
		return fmt.Errorf("%w: question %d", ErrUnknownOption, index)
	}
	if s.Answers == nil {
		s.Answers = make(Answers)
	}
	s.Answers[strconv.Itoa(index)] = option
	return nil
}

// ClearAnswer removes the answer to question index.
func (s *ExamSession) ClearAnswer(index int) error {
	if s.Ended() {
		return ErrSessionEnded
	}
	if _, err := s.question(index); err != nil {
		return err
	}
	delete(s.Answers, strconv.Itoa(index))
	return nil
}

// AnswerAt returns the recorded answer and whether one exists.
func (s *ExamSession) AnswerAt(index int) (string, bool) {
	a, ok := s.Answers[strconv.Itoa(index)]
	return a, ok
}

// Unanswered returns indices of questions without an answer, ascending.
func (s *ExamSession) Unanswered() []int {
	out := make([]int, 0)
	for i := range s.Questions {
		if _, ok := s.AnswerAt(i); !ok {
			out = append(out, i)
		}
	}
	return out
}

// Mark flags question index for review.
func (s *ExamSession) Mark(index int) error {
	if _, err := s.question(index); err != nil {
		return err
	}
	for _, m := range s.Marked {
		if m == index {
			return nil
		}
	}
	s.Marked = append(s.Marked, index)
	sort.Ints(s.Marked)
	return nil
}

// Unmark removes the review flag from question index.
func (s *ExamSession) Unmark(index int) {
	for i, m := range s.Marked {
		if m == index {
			s.Marked = append(s.Marked[:i], s.Marked[i+1:]...)
			return
		}
	}
}

// End moves the session to the ended state.
// It reports true only for the call that performed the transition.
func (s *ExamSession) End(at time.Time) bool {
	if s.Ended() {
		return false
	}
	s.Status = SessionEnded
	s.EndedAt = &at
	return true
}

// Ended reports whether the session is in its terminal state.
func (s *ExamSession) Ended() bool {
	return s.Status == SessionEnded
}

func (s *ExamSession) question(index int) (Question, error) {
	if index < 0 || index >= len(s.Questions) {
		return Question{}, fmt.Errorf("%w: %d", ErrQuestionOutOfRange, index)
	}
	return s.Questions[index], nil
}
