package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/rvt-exam/internal/config"
	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
	"github.com/aliskhannn/rvt-exam/internal/infra/report"
)

var (
	ErrAccessDenied = errors.New("invalid access code for this email")
	ErrNameRequired = errors.New("name is required")
	ErrNoQuestions  = errors.New("no questions available")
)

// TimeStatus describes how much exam time is left.
type TimeStatus struct {
	Remaining        time.Duration
	MinutesRemaining int  // whole minutes, rounded down
	Warning          bool // remaining is positive and within the warning threshold
	Expired          bool // the time limit has been reached
	Ended            bool // the session is closed, by expiry or by finishing
}

// Outcome is the final result of a finished exam.
type Outcome struct {
	SessionID    uuid.UUID
	Result       entities.ScoreResult
	PassingScore int
	Passed       bool
	Status       string
	Explanations map[int]string
	ReportPath   string
}

type finishing struct {
	once    sync.Once
	outcome *Outcome
}

// ExamService runs the exam flow: authenticate, compose, answer, time, finish.
type ExamService struct {
	verifier  CodeVerifier
	questions QuestionRepository
	selector  *QuestionSelector
	sessions  SessionStorage
	explainer Explainer
	reports   ReportWriter
	exam      config.Exam
	logger    *zap.Logger

	now func() time.Time

	mu       sync.Mutex // guards session mutations and finished
	finished map[uuid.UUID]*finishing
}

// ExamOption configures an ExamService.
type ExamOption func(*ExamService)

// WithExamClock overrides the time source used for timing sessions.
func WithExamClock(now func() time.Time) ExamOption {
	return func(s *ExamService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewExamService creates a new ExamService. explainer and reports may be nil.
func NewExamService(
	verifier CodeVerifier,
	questions QuestionRepository,
	selector *QuestionSelector,
	sessions SessionStorage,
	explainer Explainer,
	reports ReportWriter,
	exam config.Exam,
	logger *zap.Logger,
	opts ...ExamOption,
) *ExamService {
	s := &ExamService{
		verifier:  verifier,
		questions: questions,
		selector:  selector,
		sessions:  sessions,
		explainer: explainer,
		reports:   reports,
		exam:      exam,
		logger:    logger,
		now:       time.Now,
		finished:  make(map[uuid.UUID]*finishing),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate verifies an access code and returns the exam type it unlocks.
func (s *ExamService) Authenticate(email, code string) (entities.ExamType, error) {
	examType, ok := s.verifier.Verify(code, email)
	if !ok {
		s.logger.Info("access denied", zap.String("email", NormalizeEmail(email)))
		return "", ErrAccessDenied
	}
	s.logger.Info("access granted",
		zap.String("email", NormalizeEmail(email)),
		zap.String("exam_type", string(examType)),
	)
	return examType, nil
}

// Start composes a new exam for the student and starts its clock.
func (s *ExamService) Start(ctx context.Context, email, name string, examType entities.ExamType) (*entities.ExamSession, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmptyEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	questions, err := s.compose(ctx, examType)
	if err != nil {
		return nil, err
	}

	session := entities.NewExamSession(email, examType)
	session.Name = name
	if err := session.SetQuestions(questions, s.now()); err != nil {
		return nil, err
	}
	s.sessions.Store(session)

	s.logger.Info("exam started",
		zap.String("session_id", session.ID.String()),
		zap.String("email", email),
		zap.String("exam_type", string(examType)),
		zap.Int("questions", len(questions)),
	)
	return session, nil
}

func (s *ExamService) compose(ctx context.Context, examType entities.ExamType) ([]entities.Question, error) {
	total := s.exam.QuestionCount(examType)

	var selected []entities.Question
	switch examType {
	case entities.ExamTypeFull:
		bank, err := s.questions.Full(ctx)
		if err != nil {
			return nil, fmt.Errorf("load full bank: %w", err)
		}
		s.mu.Lock()
		selected = s.selector.ComposeFull(bank, s.exam.Plan(), s.exam.Backfill(), total)
		s.mu.Unlock()
	case entities.ExamTypeShort:
		bank, err := s.questions.Short(ctx)
		if err != nil {
			return nil, fmt.Errorf("load short bank: %w", err)
		}
		s.mu.Lock()
		selected = s.selector.SelectShort(bank, total)
		s.mu.Unlock()
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidExamType, examType)
	}

	if len(selected) == 0 {
		return nil, ErrNoQuestions
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Question, len(selected))
	for i, q := range selected {
		out[i] = s.selector.ShuffleOptions(q)
	}
	return out, nil
}

// Answer records option for question index.
func (s *ExamService) Answer(id uuid.UUID, index int, option string) error {
	return s.mutate(id, func(session *entities.ExamSession) error {
		if err := session.Answer(index, option); err != nil {
			return err
		}
		s.logger.Debug("answer recorded",
			zap.String("session_id", id.String()),
			zap.Int("question", index),
			zap.String("answer", option),
		)
		return nil
	})
}

// ClearAnswer removes the answer for question index.
func (s *ExamService) ClearAnswer(id uuid.UUID, index int) error {
	return s.mutate(id, func(session *entities.ExamSession) error {
		return session.ClearAnswer(index)
	})
}

// Mark flags question index for review.
func (s *ExamService) Mark(id uuid.UUID, index int) error {
	return s.mutate(id, func(session *entities.ExamSession) error {
		return session.Mark(index)
	})
}

// Unmark removes the review flag from question index.
func (s *ExamService) Unmark(id uuid.UUID, index int) error {
	return s.mutate(id, func(session *entities.ExamSession) error {
		session.Unmark(index)
		return nil
	})
}

// mutate runs fn on an active session after applying the time limit.
func (s *ExamService) mutate(id uuid.UUID, fn func(*entities.ExamSession) error) error {
	session, err := s.sessions.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timeStatusLocked(session).Ended {
		return entities.ErrSessionEnded
	}
	return fn(session)
}

// CheckTime re-derives the remaining time from the session's start time.
// Reaching the limit ends the session.
func (s *ExamService) CheckTime(id uuid.UUID) (TimeStatus, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return TimeStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeStatusLocked(session), nil
}

func (s *ExamService) timeStatusLocked(session *entities.ExamSession) TimeStatus {
	now := s.now()
	remaining := s.exam.TimeLimit(session.Type) - now.Sub(session.StartedAt)
	if remaining < 0 {
		remaining = 0
	}

	status := TimeStatus{
		Remaining:        remaining,
		MinutesRemaining: int(remaining / time.Minute),
		Warning:          remaining > 0 && remaining <= s.exam.WarningThreshold(),
		Expired:          remaining == 0,
	}
	if status.Expired && session.End(now) {
		s.logger.Info("exam time expired", zap.String("session_id", session.ID.String()))
	}
	status.Ended = session.Ended()
	return status
}

// Finish ends the session and produces its outcome. Scoring, explanations
// and the report run once; later calls return the same outcome.
func (s *ExamService) Finish(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	f, ok := s.finished[id]
	if !ok {
		f = &finishing{}
		s.finished[id] = f
	}
	s.mu.Unlock()

	f.once.Do(func() {
		f.outcome = s.finish(ctx, session)
	})
	return f.outcome, nil
}

func (s *ExamService) finish(ctx context.Context, session *entities.ExamSession) *Outcome {
	s.mu.Lock()
	now := s.now()
	session.End(now)
	result := ScoreSession(session)
	s.mu.Unlock()

	outcome := &Outcome{
		SessionID:    session.ID,
		Result:       result,
		PassingScore: s.exam.PassingScore,
		Passed:       result.Passed(s.exam.PassingScore),
		Status:       result.Status(s.exam.PassingScore),
		Explanations: map[int]string{},
	}

	if s.explainer != nil && len(result.Incorrect) > 0 {
		outcome.Explanations = s.explainer.Explain(ctx, result.Incorrect)
	}

	if s.reports != nil {
		path, err := s.reports.Write(report.Data{
			SessionID:    session.ID,
			Name:         session.Name,
			Email:        session.Email,
			ExamType:     session.Type,
			Result:       result,
			PassingScore: s.exam.PassingScore,
			Explanations: outcome.Explanations,
			Date:         now,
		})
		if err != nil {
			s.logger.Error("failed to write report",
				zap.String("session_id", session.ID.String()),
				zap.Error(err),
			)
		} else {
			outcome.ReportPath = path
		}
	}

	s.logger.Info("exam finished",
		zap.String("session_id", session.ID.String()),
		zap.Int("score", result.Score),
		zap.String("status", outcome.Status),
		zap.Int("correct", result.Correct),
		zap.Int("total", result.Total),
	)
	return outcome
}

// Release forgets a session and its cached outcome.
func (s *ExamService) Release(id uuid.UUID) {
	s.sessions.Delete(id)

	s.mu.Lock()
	delete(s.finished, id)
	s.mu.Unlock()

	s.logger.Debug("exam session released", zap.String("session_id", id.String()))
}
