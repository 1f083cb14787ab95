package service

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aliskhannn/rvt-exam/internal/config"
	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

func testCodes() config.AccessCodes {
	return config.AccessCodes{
		PasswordSalt:           "pepper",
		MasterPasswordFull:     "MASTER-FULL",
		MasterPasswordShort:    "MASTER-SHORT",
		PasswordsFullBase:      []string{"RVT", "VASC"},
		PasswordsShortBase:     []string{"DEMO"},
		TokenGeneratorPassword: "admin-secret",
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestEngine(t *testing.T, codes config.AccessCodes, now time.Time) *AccessCodeEngine {
	t.Helper()
	return NewAccessCodeEngine(codes, time.UTC, zap.NewNop(),
		WithClock(fixedClock(now)),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
}

func TestDeriveCode(t *testing.T) {
	code, err := DeriveCode("student@example.com", "RVT", "2024-05-01", "pepper")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	again, _ := DeriveCode("student@example.com", "RVT", "2024-05-01", "pepper")
	if code != again {
		t.Fatalf("expected deterministic output, got %q and %q", code, again)
	}
	if !strings.HasPrefix(code, "RVT") || len(code) != len("RVT")+8 {
		t.Fatalf("unexpected code shape %q", code)
	}
	suffix := strings.TrimPrefix(code, "RVT")
	if suffix != strings.ToUpper(suffix) {
		t.Fatalf("expected uppercase suffix, got %q", suffix)
	}

	normalized, _ := DeriveCode("  Student@Example.COM ", "RVT", "2024-05-01", "pepper")
	if normalized != code {
		t.Fatalf("expected email normalization, got %q want %q", normalized, code)
	}

	variants := []struct {
		name                    string
		email, base, date, salt string
	}{
		{name: "email", email: "other@example.com", base: "RVT", date: "2024-05-01", salt: "pepper"},
		{name: "date", email: "student@example.com", base: "RVT", date: "2024-05-02", salt: "pepper"},
		{name: "salt", email: "student@example.com", base: "RVT", date: "2024-05-01", salt: "salt"},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			other, err := DeriveCode(v.email, v.base, v.date, v.salt)
			if err != nil {
				t.Fatalf("derive: %v", err)
			}
			if strings.TrimPrefix(other, v.base) == suffix {
				t.Fatalf("expected suffix to change when %s changes", v.name)
			}
		})
	}

	if _, err := DeriveCode("student@example.com", "RVT", "2024-05-01", ""); !errors.Is(err, ErrMissingSalt) {
		t.Fatalf("expected ErrMissingSalt, got %v", err)
	}
}

func TestVerifyTodayCodes(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	codes := testCodes()
	engine := newTestEngine(t, codes, now)

	tests := []struct {
		base string
		want entities.ExamType
	}{
		{base: "RVT", want: entities.ExamTypeFull},
		{base: "VASC", want: entities.ExamTypeFull},
		{base: "DEMO", want: entities.ExamTypeShort},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			code, err := DeriveCode("student@example.com", tt.base, "2024-05-01", codes.PasswordSalt)
			if err != nil {
				t.Fatalf("derive: %v", err)
			}
			got, ok := engine.Verify(" "+code+" ", "Student@Example.com")
			if !ok || got != tt.want {
				t.Fatalf("expected %s, got %q (ok=%v)", tt.want, got, ok)
			}
			if _, ok := engine.Verify(code, "someone-else@example.com"); ok {
				t.Fatalf("expected code to be bound to the email")
			}
		})
	}
}

func TestVerifyRejectsOtherDays(t *testing.T) {
	codes := testCodes()
	code, err := DeriveCode("student@example.com", "RVT", "2024-05-01", codes.PasswordSalt)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	engine := newTestEngine(t, codes, time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))
	if _, ok := engine.Verify(code, "student@example.com"); ok {
		t.Fatalf("expected yesterday's code to be rejected")
	}
}

func TestVerifyUsesConfiguredTimezone(t *testing.T) {
	codes := testCodes()
	loc, err := config.ParseLocation("America/New_York")
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	// 02:00 UTC on May 2nd is still May 1st in New York.
	engine := NewAccessCodeEngine(codes, loc, zap.NewNop(),
		WithClock(fixedClock(time.Date(2024, 5, 2, 2, 0, 0, 0, time.UTC))))
	if engine.Today() != "2024-05-01" {
		t.Fatalf("expected 2024-05-01, got %s", engine.Today())
	}

	code, _ := DeriveCode("student@example.com", "DEMO", "2024-05-01", codes.PasswordSalt)
	if got, ok := engine.Verify(code, "student@example.com"); !ok || got != entities.ExamTypeShort {
		t.Fatalf("expected short access, got %q (ok=%v)", got, ok)
	}
}

func TestVerifyMasterPasswordsAndEmptyInput(t *testing.T) {
	codes := testCodes()
	codes.PasswordSalt = ""
	engine := newTestEngine(t, codes, time.Now())

	if got, ok := engine.Verify("MASTER-FULL", "a@b.c"); !ok || got != entities.ExamTypeFull {
		t.Fatalf("expected full master access, got %q (ok=%v)", got, ok)
	}
	if got, ok := engine.Verify("MASTER-SHORT", "a@b.c"); !ok || got != entities.ExamTypeShort {
		t.Fatalf("expected short master access, got %q (ok=%v)", got, ok)
	}
	if _, ok := engine.Verify("MASTER-FULL", "  "); ok {
		t.Fatalf("expected empty email to be rejected")
	}
	if _, ok := engine.Verify("", "a@b.c"); ok {
		t.Fatalf("expected empty token to be rejected")
	}
	if _, ok := engine.Verify("RVT12345678", "a@b.c"); ok {
		t.Fatalf("expected derived codes to fail closed without a salt")
	}
}

func TestVerifyMasterPasswordNeedsExactMatch(t *testing.T) {
	engine := newTestEngine(t, testCodes(), time.Now())

	for _, token := range []string{"MASTER-FUL", "MASTER-FULLX", "master-full", "MASTER-SHORT "} {
		got, ok := engine.Verify(token, "a@b.c")
		if token == "MASTER-SHORT " {
			if !ok || got != entities.ExamTypeShort {
				t.Fatalf("expected trimmed %q to match, got %q (ok=%v)", token, got, ok)
			}
			continue
		}
		if ok {
			t.Fatalf("expected %q not to match, got %q", token, got)
		}
	}
}

func TestSecretsEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{a: "secret", b: "secret", want: true},
		{a: "secret", b: "secreT", want: false},
		{a: "secret", b: "secret2", want: false},
		{a: "", b: "", want: true},
		{a: "secret", b: "", want: false},
	}
	for _, tt := range tests {
		if got := secretsEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("secretsEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVerifyEmptyMasterPasswordNeverMatches(t *testing.T) {
	codes := testCodes()
	codes.MasterPasswordFull = ""
	codes.MasterPasswordShort = ""
	engine := newTestEngine(t, codes, time.Now())
	if _, ok := engine.Verify("x", "a@b.c"); ok {
		t.Fatalf("expected no match")
	}
}

func TestGenerate(t *testing.T) {
	codes := testCodes()
	engine := newTestEngine(t, codes, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	cred, err := engine.Generate(GenerateRequest{
		AdminPassword: "admin-secret",
		Email:         " Student@Example.com",
		ExamType:      entities.ExamTypeShort,
		Date:          "2024-05-01",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if cred.BaseCode != "DEMO" || cred.Email != "student@example.com" || cred.Date != "2024-05-01" {
		t.Fatalf("unexpected credential %+v", cred)
	}
	if cred.Code != cred.BaseCode+cred.Suffix || len(cred.Suffix) != 8 {
		t.Fatalf("unexpected code parts %+v", cred)
	}
	if got, ok := engine.Verify(cred.Code, "student@example.com"); !ok || got != entities.ExamTypeShort {
		t.Fatalf("expected generated code to verify as short, got %q (ok=%v)", got, ok)
	}

	full, err := engine.Generate(GenerateRequest{
		AdminPassword: "admin-secret",
		Email:         "student@example.com",
		ExamType:      entities.ExamTypeFull,
		Date:          "2024-05-01",
	})
	if err != nil {
		t.Fatalf("generate full: %v", err)
	}
	if full.BaseCode != "RVT" && full.BaseCode != "VASC" {
		t.Fatalf("expected a full base, got %q", full.BaseCode)
	}
}

func TestGenerateWithBcryptAdminPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	codes := testCodes()
	codes.TokenGeneratorPassword = string(hash)
	engine := newTestEngine(t, codes, time.Now())

	req := GenerateRequest{AdminPassword: "hunter2", Email: "a@b.c", ExamType: entities.ExamTypeFull, Date: "2024-01-31"}
	if _, err := engine.Generate(req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	req.AdminPassword = string(hash)
	if _, err := engine.Generate(req); !errors.Is(err, ErrInvalidAdminPassword) {
		t.Fatalf("expected the hash itself to be rejected, got %v", err)
	}
}

func TestGenerateErrors(t *testing.T) {
	valid := GenerateRequest{
		AdminPassword: "admin-secret",
		Email:         "a@b.c",
		ExamType:      entities.ExamTypeFull,
		Date:          "2024-05-01",
	}

	tests := []struct {
		name   string
		codes  func(*config.AccessCodes)
		mutate func(*GenerateRequest)
		want   error
	}{
		{name: "admin password not configured", codes: func(c *config.AccessCodes) { c.TokenGeneratorPassword = "" }, want: ErrAdminPasswordNotConfigured},
		{name: "wrong admin password", mutate: func(r *GenerateRequest) { r.AdminPassword = "nope" }, want: ErrInvalidAdminPassword},
		{name: "empty admin password", mutate: func(r *GenerateRequest) { r.AdminPassword = "" }, want: ErrInvalidAdminPassword},
		{name: "empty email", mutate: func(r *GenerateRequest) { r.Email = "  " }, want: ErrEmptyEmail},
		{name: "unknown exam type", mutate: func(r *GenerateRequest) { r.ExamType = "medium" }, want: ErrInvalidExamType},
		{name: "invalid date", mutate: func(r *GenerateRequest) { r.Date = "2024-13-01" }, want: ErrInvalidDate},
		{name: "wrong date format", mutate: func(r *GenerateRequest) { r.Date = "05/01/2024" }, want: ErrInvalidDate},
		{name: "empty pool", codes: func(c *config.AccessCodes) { c.PasswordsFullBase = nil }, want: ErrNoBaseCodes},
		{name: "missing salt", codes: func(c *config.AccessCodes) { c.PasswordSalt = "" }, want: ErrMissingSalt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := testCodes()
			if tt.codes != nil {
				tt.codes(&codes)
			}
			req := valid
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			engine := newTestEngine(t, codes, time.Now())
			if _, err := engine.Generate(req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
