package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

func writeBank(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	return path
}

func TestLoadBankJSON(t *testing.T) {
	path := writeBank(t, "preguntas.json", `[
  {"id": 7, "enunciado": " What is shown? ", "opciones": ["A", "B", "C"], "respuesta_correcta": ["B"],
   "clasificacion": "Physiologic Exams", "image": "img1.png"},
  {"enunciado": "No id here", "opciones": ["yes", "no"], "respuesta_correcta": ["no"],
   "explicacion_openai": "Because.", "concept_to_study": "Doppler"}
]`)

	bank, err := LoadBank(path)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank.Questions))
	}
	if len(bank.Rejected) != 0 {
		t.Fatalf("expected no rejected records, got %+v", bank.Rejected)
	}

	first := bank.Questions[0]
	if first.ID != "7" {
		t.Fatalf("expected numeric id to be stringified, got %q", first.ID)
	}
	if first.Statement != "What is shown?" {
		t.Fatalf("expected trimmed statement, got %q", first.Statement)
	}
	if !first.HasImage() {
		t.Fatalf("expected image to be kept")
	}

	second := bank.Questions[1]
	if second.ID != "preguntas-2" {
		t.Fatalf("expected positional id, got %q", second.ID)
	}
	if second.Classification != entities.DefaultClassification {
		t.Fatalf("expected default classification, got %q", second.Classification)
	}
	if second.HasImage() {
		t.Fatalf("expected no image")
	}
	if second.StudyConcept != "Doppler" || second.LocalExplanation != "Because." {
		t.Fatalf("unexpected explanation fields: %+v", second)
	}
}

func TestLoadBankYAML(t *testing.T) {
	path := writeBank(t, "short.yaml", `
- id: q1
  enunciado: First
  opciones: [A, B]
  respuesta_correcta: [A]
  clasificacion: Topic
  image: null
- id: q2
  enunciado: Second
  opciones: [C, D]
  respuesta_correcta: [D]
`)

	bank, err := LoadBank(path)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank.Questions))
	}
	if bank.Questions[0].Image != "" {
		t.Fatalf("expected null image to be empty, got %q", bank.Questions[0].Image)
	}
	if bank.Questions[1].ID != "q2" {
		t.Fatalf("unexpected id %q", bank.Questions[1].ID)
	}
}

func TestLoadBankQuarantinesInvalidRecords(t *testing.T) {
	path := writeBank(t, "bank.json", `[
  {"id": "ok", "enunciado": "Valid", "opciones": ["A", "B"], "respuesta_correcta": ["A"]},
  {"id": "one-option", "enunciado": "Bad", "opciones": ["A"], "respuesta_correcta": ["A"]},
  {"id": "wrong-answer", "enunciado": "Bad", "opciones": ["A", "B"], "respuesta_correcta": ["Z"]},
  {"id": "ok", "enunciado": "Duplicate", "opciones": ["A", "B"], "respuesta_correcta": ["B"]},
  {"id": "blank", "enunciado": "   ", "opciones": ["A", "B"], "respuesta_correcta": ["B"]},
  "not an object"
]`)

	bank, err := LoadBank(path)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if len(bank.Questions) != 1 || bank.Questions[0].ID != "ok" {
		t.Fatalf("expected only the first record to survive, got %+v", bank.Questions)
	}

	wantIndices := []int{1, 2, 3, 4, 5}
	if len(bank.Rejected) != len(wantIndices) {
		t.Fatalf("expected %d rejected records, got %+v", len(wantIndices), bank.Rejected)
	}
	for i, want := range wantIndices {
		if bank.Rejected[i].Index != want {
			t.Fatalf("rejected[%d]: expected index %d, got %d", i, want, bank.Rejected[i].Index)
		}
		if bank.Rejected[i].Reason == "" {
			t.Fatalf("rejected[%d]: expected a reason", i)
		}
	}
	if !strings.Contains(bank.Rejected[1].Reason, "not one of the options") {
		t.Fatalf("unexpected reason: %s", bank.Rejected[1].Reason)
	}
	if !strings.Contains(bank.Rejected[2].Reason, "duplicate id") {
		t.Fatalf("unexpected reason: %s", bank.Rejected[2].Reason)
	}
}

func TestLoadBankPositionalIDsAvoidExplicitOnes(t *testing.T) {
	path := writeBank(t, "b.json", `[
  {"enunciado": "First", "opciones": ["A", "B"], "respuesta_correcta": ["A"]},
  {"id": "b-1", "enunciado": "Second", "opciones": ["A", "B"], "respuesta_correcta": ["B"]}
]`)

	bank, err := LoadBank(path)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if bank.Questions[0].ID == bank.Questions[1].ID {
		t.Fatalf("expected distinct ids, got %q twice", bank.Questions[0].ID)
	}
	if bank.Questions[0].ID != "b-1-2" {
		t.Fatalf("unexpected generated id %q", bank.Questions[0].ID)
	}
}

func TestLoadBankErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
		want     error
	}{
		{name: "object instead of array", file: "x.json", contents: `{"questions": []}`, want: ErrMalformedBank},
		{name: "broken yaml", file: "x.yaml", contents: "- [unclosed", want: ErrMalformedBank},
		{name: "no valid records", file: "x.json", contents: `[{"enunciado": "x"}]`, want: ErrEmptyBank},
		{name: "empty array", file: "x.json", contents: `[]`, want: ErrEmptyBank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeBank(t, tt.file, tt.contents)
			if _, err := LoadBank(path); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestQuestionRepositoryCachesBanks(t *testing.T) {
	full := writeBank(t, "full.json", `[{"enunciado": "Q", "opciones": ["A", "B"], "respuesta_correcta": ["A"]}]`)
	repo := NewQuestionRepository(full, "", zap.NewNop())

	first, err := repo.Full(context.Background())
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	first[0].Statement = "mutated"

	if err := os.Remove(full); err != nil {
		t.Fatalf("remove bank: %v", err)
	}
	second, err := repo.Full(context.Background())
	if err != nil {
		t.Fatalf("expected cached bank after file removal: %v", err)
	}
	if second[0].Statement != "Q" {
		t.Fatalf("expected cached bank to be unaffected by caller mutation, got %q", second[0].Statement)
	}

	if _, err := repo.Short(context.Background()); !errors.Is(err, ErrBankPathNotSet) {
		t.Fatalf("expected ErrBankPathNotSet, got %v", err)
	}
}
