package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

func writeConfig(t *testing.T, name, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `password_salt: " pepper "
passwords_full_base: ["RVT", " VASC "]
passwords_short_base: ["DEMO"]
master_password_full: MASTER
timezone: UTC-5
time_limit_seconds: 3600
selection_plan:
  - classification: Anatomy
    percent: 70
  - classification: Physics
    percent: 30
image_backfill_plan:
  - classification: Anatomy
    count: 2
explanations:
  timeout: 5s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PasswordSalt != "pepper" {
		t.Fatalf("expected trimmed salt, got %q", cfg.PasswordSalt)
	}
	if len(cfg.Bases(entities.ExamTypeFull)) != 2 || cfg.Bases(entities.ExamTypeFull)[1] != "VASC" {
		t.Fatalf("unexpected full bases: %v", cfg.PasswordsFullBase)
	}
	if got := cfg.Bases(entities.ExamTypeShort); len(got) != 1 || got[0] != "DEMO" {
		t.Fatalf("unexpected short bases: %v", got)
	}
	if cfg.TimeLimit(entities.ExamTypeFull) != time.Hour {
		t.Fatalf("unexpected full time limit: %v", cfg.TimeLimit(entities.ExamTypeFull))
	}
	if cfg.TimeLimit(entities.ExamTypeShort) != 30*time.Minute {
		t.Fatalf("expected default short time limit, got %v", cfg.TimeLimit(entities.ExamTypeShort))
	}
	if cfg.PassingScore != 555 || cfg.QuestionCount(entities.ExamTypeFull) != 140 || cfg.QuestionCount(entities.ExamTypeShort) != 20 {
		t.Fatalf("unexpected exam defaults: %+v", cfg.Exam)
	}
	plan := cfg.Plan()
	if len(plan) != 2 || plan[0].Classification != "Anatomy" || plan[0].Percent != 70 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	backfill := cfg.Backfill()
	if len(backfill) != 1 || backfill[0].Count != 2 {
		t.Fatalf("unexpected backfill: %+v", backfill)
	}
	if cfg.Explanations.Timeout != 5*time.Second {
		t.Fatalf("unexpected explanation timeout: %v", cfg.Explanations.Timeout)
	}
	_, offset := time.Date(2024, 5, 1, 12, 0, 0, 0, cfg.Location()).Zone()
	if offset != -5*3600 {
		t.Fatalf("expected UTC-5 location, got offset %d", offset)
	}
}

func TestLoadJSONWithEnvSecrets(t *testing.T) {
	t.Setenv("PASSWORD_SALT", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := writeConfig(t, "config.json", `{"password_salt": "from-file", "passing_score": 600}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PasswordSalt != "from-env" {
		t.Fatalf("expected env salt to win, got %q", cfg.PasswordSalt)
	}
	if cfg.PassingScore != 600 {
		t.Fatalf("expected passing score 600, got %d", cfg.PassingScore)
	}
	if !cfg.Explanations.Enabled() || cfg.Explanations.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected explanations config: %+v", cfg.Explanations)
	}
	if got := len(cfg.Plan()); got != 7 {
		t.Fatalf("expected default plan with 7 classifications, got %d", got)
	}
}

func TestLoadRejectsPlanNotSummingTo100(t *testing.T) {
	path := writeConfig(t, "config.yaml", `selection_plan:
  - classification: Anatomy
    percent: 50
  - classification: Physics
    percent: 30
`)
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in     string
		offset int
		ok     bool
	}{
		{in: "", offset: 0, ok: true},
		{in: "UTC", offset: 0, ok: true},
		{in: "UTC+3", offset: 3 * 3600, ok: true},
		{in: "UTC+5:30", offset: 5*3600 + 30*60, ok: true},
		{in: "-03:30", offset: -(3*3600 + 30*60), ok: true},
		{in: "UTC+15", ok: false},
		{in: "Mars/Olympus", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			loc, err := ParseLocation(tc.in)
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tc.in, err)
			}
			_, offset := time.Date(2024, 1, 15, 0, 0, 0, 0, loc).Zone()
			if offset != tc.offset {
				t.Fatalf("expected offset %d, got %d", tc.offset, offset)
			}
		})
	}
}
