package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
	"github.com/aliskhannn/rvt-exam/internal/infra/report"
)

// QuestionRepository provides the full and short question banks.
type QuestionRepository interface {
	Full(ctx context.Context) ([]entities.Question, error)
	Short(ctx context.Context) ([]entities.Question, error)
}

// SessionStorage keeps exam sessions by id.
type SessionStorage interface {
	Store(session *entities.ExamSession)
	Get(id uuid.UUID) (*entities.ExamSession, error)
	Delete(id uuid.UUID)
}

// ChatCompleter answers a prompt with generated text.
type ChatCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Explainer produces explanations keyed by question index.
type Explainer interface {
	Explain(ctx context.Context, incorrect []entities.IncorrectAnswer) map[int]string
}

// ReportWriter renders a result document and returns where it was written.
type ReportWriter interface {
	Write(data report.Data) (string, error)
}

// CodeVerifier checks access codes.
type CodeVerifier interface {
	Verify(token, email string) (entities.ExamType, bool)
}
