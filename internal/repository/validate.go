package repository

import (
	"fmt"
	"strings"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

// Issue captures a validation problem in a bank record.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports one or more validation issues of a record.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("question validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

// normalizeQuestion trims whitespace, applies defaults and checks the
// rules the schema cannot express.
func normalizeQuestion(q entities.Question) (entities.Question, error) {
	collector := &issueCollector{}

	q.ID = strings.TrimSpace(q.ID)
	q.Statement = strings.TrimSpace(q.Statement)
	if q.Statement == "" {
		collector.add("enunciado", "is required")
	}

	q.Options = trimStrings(q.Options)
	if len(q.Options) < 2 {
		collector.add("opciones", "must include at least two entries")
	}
	seen := make(map[string]struct{}, len(q.Options))
	for i, option := range q.Options {
		if option == "" {
			collector.add(fmt.Sprintf("opciones[%d]", i), "is required")
			continue
		}
		if _, ok := seen[option]; ok {
			collector.add(fmt.Sprintf("opciones[%d]", i), fmt.Sprintf("duplicate option %q", option))
		}
		seen[option] = struct{}{}
	}

	q.CorrectAnswers = trimStrings(q.CorrectAnswers)
	if len(q.CorrectAnswers) == 0 {
		collector.add("respuesta_correcta", "must include at least one entry")
	}
	for i, answer := range q.CorrectAnswers {
		if _, ok := seen[answer]; !ok {
			collector.add(fmt.Sprintf("respuesta_correcta[%d]", i), fmt.Sprintf("%q is not one of the options", answer))
		}
	}

	q.Classification = strings.TrimSpace(q.Classification)
	if q.Classification == "" {
		q.Classification = entities.DefaultClassification
	}
	q.Image = strings.TrimSpace(q.Image)
	q.LocalExplanation = strings.TrimSpace(q.LocalExplanation)
	q.StudyConcept = strings.TrimSpace(q.StudyConcept)

	return q, collector.result()
}

func trimStrings(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
