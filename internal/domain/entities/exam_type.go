package entities

import (
	"fmt"
	"strings"
)

// ExamType is the kind of exam an access code unlocks.
type ExamType string

const (
	ExamTypeFull  ExamType = "full"
	ExamTypeShort ExamType = "short"
)

// ParseExamType parses "full" or "short", case-insensitively.
func ParseExamType(s string) (ExamType, error) {
	switch ExamType(strings.ToLower(strings.TrimSpace(s))) {
	case ExamTypeFull:
		return ExamTypeFull, nil
	case ExamTypeShort:
		return ExamTypeShort, nil
	default:
		return "", fmt.Errorf("unknown exam type %q", s)
	}
}

// Label returns the title-cased name shown to users.
func (t ExamType) Label() string {
	switch t {
	case ExamTypeShort:
		return "Short"
	default:
		return "Full"
	}
}
