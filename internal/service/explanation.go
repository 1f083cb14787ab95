package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

const explanationSystemPrompt = "You are a helpful assistant."

// ExplanationService produces explanations for incorrectly answered questions.
type ExplanationService struct {
	generator ChatCompleter
	timeout   time.Duration
	logger    *zap.Logger
}

// NewExplanationService creates a service. A nil generator disables the
// generative lookup; stored explanations are still returned.
func NewExplanationService(generator ChatCompleter, timeout time.Duration, logger *zap.Logger) *ExplanationService {
	return &ExplanationService{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Explain returns explanations keyed by question index. Questions without a
// stored explanation are sent to the generator when one is configured;
// lookups that fail or time out are left out of the result.
func (s *ExplanationService) Explain(ctx context.Context, incorrect []entities.IncorrectAnswer) map[int]string {
	out := make(map[int]string, len(incorrect))
	for _, ia := range incorrect {
		if text, ok := LocalExplanation(ia.Question); ok {
			out[ia.Index] = text
			continue
		}
		if s.generator == nil {
			continue
		}
		text, err := s.generate(ctx, ia)
		if err != nil {
			s.logger.Warn("explanation lookup failed",
				zap.Int("question", ia.Index),
				zap.String("id", ia.Question.ID),
				zap.Error(err),
			)
			continue
		}
		out[ia.Index] = text
	}
	return out
}

func (s *ExplanationService) generate(ctx context.Context, ia entities.IncorrectAnswer) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.generator.Complete(ctx, explanationSystemPrompt, ExplanationPrompt(ia.Question, ia.UserAnswer))
}

// LocalExplanation returns the stored explanation, prefixed with the study
// concept when one is set.
func LocalExplanation(q entities.Question) (string, bool) {
	text := strings.TrimSpace(q.LocalExplanation)
	if text == "" {
		return "", false
	}
	if concept := strings.TrimSpace(q.StudyConcept); concept != "" {
		return fmt.Sprintf("Concept to Study: %s\n%s", concept, text), true
	}
	return text, true
}

// ExplanationPrompt formats a question and the wrong answer for the generator.
func ExplanationPrompt(q entities.Question, userAnswer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", q.Statement)
	b.WriteString("Options:\n")
	for i, option := range q.Options {
		fmt.Fprintf(&b, "%c) %s\n", 'a'+rune(i%26), option)
	}
	fmt.Fprintf(&b, "Incorrect answer: %s\n", userAnswer)
	fmt.Fprintf(&b, "Correct answer: %s\n\n", strings.Join(q.CorrectAnswers, ", "))
	b.WriteString("Explain briefly why the correct answer is right and why the chosen answer is wrong. ")
	b.WriteString("Start with a line of the form \"Concept to Study: <concept>\".")
	return b.String()
}
