package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aliskhannn/rvt-exam/internal/config"
	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

// DateLayout is the date format bound into access codes.
const DateLayout = "2006-01-02"

// suffixLength is the number of hex characters appended to a base code.
const suffixLength = 8

var (
	ErrMissingSalt                = errors.New("configuration error: password_salt is not set")
	ErrAdminPasswordNotConfigured = errors.New("configuration error: token_generator_password is not set")
	ErrInvalidAdminPassword       = errors.New("invalid administrator password")
	ErrEmptyEmail                 = errors.New("email is required")
	ErrNoBaseCodes                = errors.New("no base codes configured")
	ErrInvalidDate                = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidExamType            = errors.New("invalid exam type")
)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeriveCode returns base followed by the first 8 uppercase hex characters of
// SHA-256(base|date|email|salt). The email is normalized first.
func DeriveCode(email, base, date, salt string) (string, error) {
	if salt == "" {
		return "", ErrMissingSalt
	}
	raw := base + "|" + date + "|" + NormalizeEmail(email) + "|" + salt
	sum := sha256.Sum256([]byte(raw))
	suffix := strings.ToUpper(hex.EncodeToString(sum[:]))[:suffixLength]
	return base + suffix, nil
}

// AccessCodeEngine verifies and issues date- and email-bound access codes.
type AccessCodeEngine struct {
	codes  config.AccessCodes
	loc    *time.Location
	logger *zap.Logger

	now func() time.Time
	rng *rand.Rand
}

// AccessCodeOption configures an AccessCodeEngine.
type AccessCodeOption func(*AccessCodeEngine)

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) AccessCodeOption {
	return func(e *AccessCodeEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRand sets the source used to pick base codes.
func WithRand(rng *rand.Rand) AccessCodeOption {
	return func(e *AccessCodeEngine) {
		e.rng = rng
	}
}

// NewAccessCodeEngine creates an engine that computes "today" in loc.
func NewAccessCodeEngine(
	codes config.AccessCodes,
	loc *time.Location,
	logger *zap.Logger,
	opts ...AccessCodeOption,
) *AccessCodeEngine {
	if loc == nil {
		loc = time.UTC
	}
	e := &AccessCodeEngine{
		codes:  codes,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the current date in the engine's timezone.
func (e *AccessCodeEngine) Today() string {
	return e.now().In(e.loc).Format(DateLayout)
}

// Verify checks token for email and returns the exam type it unlocks.
// Master passwords are checked first, then today's code for every full base
// and every short base. A failed match is not an error.
func (e *AccessCodeEngine) Verify(token, email string) (entities.ExamType, bool) {
	token = strings.TrimSpace(token)
	email = NormalizeEmail(email)
	if token == "" || email == "" {
		return "", false
	}

	if m := e.codes.MasterPasswordFull; m != "" && secretsEqual(m, token) {
		return entities.ExamTypeFull, true
	}
	if m := e.codes.MasterPasswordShort; m != "" && secretsEqual(m, token) {
		return entities.ExamTypeShort, true
	}

	today := e.Today()
	for _, examType := range []entities.ExamType{entities.ExamTypeFull, entities.ExamTypeShort} {
		for _, base := range e.codes.Bases(examType) {
			expected, err := DeriveCode(email, base, today, e.codes.PasswordSalt)
			if err != nil {
				e.logger.Error("access code verification unavailable", zap.Error(err))
				return "", false
			}
			if secretsEqual(expected, token) {
				return examType, true
			}
		}
	}
	return "", false
}

// GenerateRequest is an administrative request for a student's access code.
type GenerateRequest struct {
	AdminPassword string
	Email         string
	ExamType      entities.ExamType
	Date          string // YYYY-MM-DD
}

// Generate issues an access code after checking the administrator secret.
// The base code is picked at random from the pool of the requested exam type.
func (e *AccessCodeEngine) Generate(req GenerateRequest) (entities.AccessCredential, error) {
	stored := strings.TrimSpace(e.codes.TokenGeneratorPassword)
	if stored == "" {
		return entities.AccessCredential{}, ErrAdminPasswordNotConfigured
	}
	if !checkAdminPassword(stored, strings.TrimSpace(req.AdminPassword)) {
		e.logger.Warn("rejected access code generation: wrong administrator password")
		return entities.AccessCredential{}, ErrInvalidAdminPassword
	}

	email := NormalizeEmail(req.Email)
	if email == "" {
		return entities.AccessCredential{}, ErrEmptyEmail
	}
	if req.ExamType != entities.ExamTypeFull && req.ExamType != entities.ExamTypeShort {
		return entities.AccessCredential{}, fmt.Errorf("%w: %q", ErrInvalidExamType, req.ExamType)
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return entities.AccessCredential{}, fmt.Errorf("%w: %q", ErrInvalidDate, req.Date)
	}
	dateStr := date.Format(DateLayout)

	bases := e.codes.Bases(req.ExamType)
	if len(bases) == 0 {
		return entities.AccessCredential{}, fmt.Errorf("%w for %s exams", ErrNoBaseCodes, req.ExamType)
	}
	base := bases[e.intN(len(bases))]

	code, err := DeriveCode(email, base, dateStr, e.codes.PasswordSalt)
	if err != nil {
		return entities.AccessCredential{}, err
	}

	e.logger.Info("access code generated",
		zap.String("email", email),
		zap.String("exam_type", string(req.ExamType)),
		zap.String("date", dateStr),
	)

	return entities.AccessCredential{
		Code:     code,
		BaseCode: base,
		Suffix:   strings.TrimPrefix(code, base),
		Email:    email,
		Date:     dateStr,
		ExamType: req.ExamType,
	}, nil
}

func (e *AccessCodeEngine) intN(n int) int {
	if e.rng != nil {
		return e.rng.IntN(n)
	}
	return rand.IntN(n)
}

// checkAdminPassword compares against a bcrypt hash or a plain secret.
func checkAdminPassword(stored, given string) bool {
	if given == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return secretsEqual(stored, given)
}

// secretsEqual compares two secrets in constant time.
func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
