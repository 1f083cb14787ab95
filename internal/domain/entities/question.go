// Package entities contains domain entities used across the application.
package entities

import "strings"

// DefaultClassification is assigned to questions that carry no topic tag.
const DefaultClassification = "Other"

// Question is a single multiple-choice item from a question bank.
// JSON and YAML keys follow the bank file format.
type Question struct {
	ID               string   `json:"id,omitempty" yaml:"id,omitempty"`                                 // stable unique id
	Statement        string   `json:"enunciado" yaml:"enunciado"`                                       // question text
	Options          []string `json:"opciones" yaml:"opciones"`                                         // answer options in display order
	CorrectAnswers   []string `json:"respuesta_correcta" yaml:"respuesta_correcta"`                     // accepted options
	Classification   string   `json:"clasificacion,omitempty" yaml:"clasificacion,omitempty"`           // topic tag
	Image            string   `json:"image,omitempty" yaml:"image,omitempty"`                           // optional image file name
	LocalExplanation string   `json:"explicacion_openai,omitempty" yaml:"explicacion_openai,omitempty"` // stored explanation
	StudyConcept     string   `json:"concept_to_study,omitempty" yaml:"concept_to_study,omitempty"`     // concept label for the explanation
}

// Key returns the identity used for duplicate detection.
func (q Question) Key() string {
	if q.ID != "" {
		return q.ID
	}
	return q.Statement
}

// HasImage reports whether the question references a non-blank image.
func (q Question) HasImage() bool {
	return strings.TrimSpace(q.Image) != ""
}

// IsCorrect reports whether answer is one of the accepted answers.
func (q Question) IsCorrect(answer string) bool {
	for _, c := range q.CorrectAnswers {
		if c == answer {
			return true
		}
	}
	return false
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// WithOptions returns a copy of q using the given option order.
func (q Question) WithOptions(options []string) Question {
	q.Options = options
	q.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
	return q
}
