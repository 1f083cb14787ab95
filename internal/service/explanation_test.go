package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

type fakeCompleter struct {
	calls   []string
	replies map[string]string // statement -> reply
	block   bool
}

func (f *fakeCompleter) Complete(ctx context.Context, _ string, prompt string) (string, error) {
	f.calls = append(f.calls, prompt)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	for statement, reply := range f.replies {
		if strings.Contains(prompt, statement) {
			return reply, nil
		}
	}
	return "", errors.New("upstream failure")
}

func incorrectAnswer(index int, q entities.Question, answer string) entities.IncorrectAnswer {
	return entities.IncorrectAnswer{Index: index, Question: q, UserAnswer: answer}
}

func TestLocalExplanation(t *testing.T) {
	if _, ok := LocalExplanation(entities.Question{LocalExplanation: "  "}); ok {
		t.Fatalf("expected blank explanation to be ignored")
	}
	text, ok := LocalExplanation(entities.Question{LocalExplanation: "Because.", StudyConcept: "Doppler"})
	if !ok || text != "Concept to Study: Doppler\nBecause." {
		t.Fatalf("unexpected explanation %q", text)
	}
	text, _ = LocalExplanation(entities.Question{LocalExplanation: "Because."})
	if text != "Because." {
		t.Fatalf("unexpected explanation %q", text)
	}
}

func TestExplainPrefersLocalAndSkipsFailures(t *testing.T) {
	completer := &fakeCompleter{replies: map[string]string{"Generated one": "Generated text"}}
	svc := NewExplanationService(completer, time.Second, zap.NewNop())

	incorrect := []entities.IncorrectAnswer{
		incorrectAnswer(0, entities.Question{Statement: "Local one", LocalExplanation: "Stored", StudyConcept: "Flow"}, "A"),
		incorrectAnswer(4, entities.Question{Statement: "Generated one", Options: []string{"A", "B"}, CorrectAnswers: []string{"B"}}, "A"),
		incorrectAnswer(7, entities.Question{Statement: "Failing one", Options: []string{"A", "B"}, CorrectAnswers: []string{"A"}}, "B"),
	}

	got := svc.Explain(context.Background(), incorrect)
	if len(got) != 2 {
		t.Fatalf("expected two explanations, got %v", got)
	}
	if got[0] != "Concept to Study: Flow\nStored" {
		t.Fatalf("unexpected local explanation %q", got[0])
	}
	if got[4] != "Generated text" {
		t.Fatalf("unexpected generated explanation %q", got[4])
	}
	if _, ok := got[7]; ok {
		t.Fatalf("expected failed lookup to be skipped")
	}
	if len(completer.calls) != 2 {
		t.Fatalf("expected the generator to be called only for questions without a stored explanation, got %d calls", len(completer.calls))
	}
	if !strings.Contains(completer.calls[0], "a) A\nb) B") || !strings.Contains(completer.calls[0], "Correct answer: B") {
		t.Fatalf("unexpected prompt %q", completer.calls[0])
	}
}

func TestExplainWithoutGenerator(t *testing.T) {
	svc := NewExplanationService(nil, 0, zap.NewNop())
	got := svc.Explain(context.Background(), []entities.IncorrectAnswer{
		incorrectAnswer(1, entities.Question{Statement: "No stored text"}, "A"),
		incorrectAnswer(2, entities.Question{Statement: "Stored", LocalExplanation: "Yes"}, "A"),
	})
	if len(got) != 1 || got[2] != "Yes" {
		t.Fatalf("unexpected explanations %v", got)
	}
}

func TestExplainTimesOut(t *testing.T) {
	svc := NewExplanationService(&fakeCompleter{block: true}, 10*time.Millisecond, zap.NewNop())

	start := time.Now()
	got := svc.Explain(context.Background(), []entities.IncorrectAnswer{
		incorrectAnswer(0, entities.Question{Statement: "Slow"}, "A"),
	})
	if len(got) != 0 {
		t.Fatalf("expected no explanations, got %v", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("expected the lookup to be cut off, took %s", elapsed)
	}
}
