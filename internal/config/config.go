package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env      string `mapstructure:"env"`       // current application environment (local, dev, production)
	LogLevel string `mapstructure:"log_level"` // optional zap level override
	Timezone string `mapstructure:"timezone"`  // zone that defines "today" for access codes

	AccessCodes  `mapstructure:",squash"`
	Exam         `mapstructure:",squash"`
	Explanations Explanations `mapstructure:"explanations"`

	QuestionsPath      string `mapstructure:"questions_path"`       // full question bank
	ShortQuestionsPath string `mapstructure:"short_questions_path"` // short/demo question bank
	ReportDir          string `mapstructure:"report_dir"`           // where result workbooks are written

	location *time.Location
}

// AccessCodes contains the secrets used to derive and verify access codes.
type AccessCodes struct {
	PasswordSalt           string   `mapstructure:"password_salt"`
	MasterPasswordFull     string   `mapstructure:"master_password_full"`
	MasterPasswordShort    string   `mapstructure:"master_password_short"`
	PasswordsFullBase      []string `mapstructure:"passwords_full_base"`
	PasswordsShortBase     []string `mapstructure:"passwords_short_base"`
	TokenGeneratorPassword string   `mapstructure:"token_generator_password"` // plain secret or bcrypt hash
}

// Bases returns the base-code pool for an exam type.
func (a AccessCodes) Bases(t entities.ExamType) []string {
	if t == entities.ExamTypeShort {
		return a.PasswordsShortBase
	}
	return a.PasswordsFullBase
}

// Exam contains timing, sizing and scoring parameters.
type Exam struct {
	TimeLimitSeconds      int             `mapstructure:"time_limit_seconds"`
	TimeLimitSecondsShort int             `mapstructure:"time_limit_seconds_short"`
	WarningTimeSeconds    int             `mapstructure:"warning_time_seconds"`
	PassingScore          int             `mapstructure:"passing_score"`
	FullQuestionCount     int             `mapstructure:"full_question_count"`
	ShortQuestionCount    int             `mapstructure:"short_question_count"`
	SelectionPlan         []PlanEntry     `mapstructure:"selection_plan"`
	ImageBackfillPlan     []BackfillEntry `mapstructure:"image_backfill_plan"`
}

// PlanEntry is one classification quota of the full exam.
// Plans are lists because viper lowercases map keys.
type PlanEntry struct {
	Classification string `mapstructure:"classification"`
	Percent        int    `mapstructure:"percent"`
}

// BackfillEntry is one classification's image swap target.
type BackfillEntry struct {
	Classification string `mapstructure:"classification"`
	Count          int    `mapstructure:"count"`
}

// TimeLimit returns the exam duration for an exam type.
func (e Exam) TimeLimit(t entities.ExamType) time.Duration {
	if t == entities.ExamTypeShort {
		return time.Duration(e.TimeLimitSecondsShort) * time.Second
	}
	return time.Duration(e.TimeLimitSeconds) * time.Second
}

// WarningThreshold returns the remaining time below which a warning is shown.
func (e Exam) WarningThreshold() time.Duration {
	return time.Duration(e.WarningTimeSeconds) * time.Second
}

// QuestionCount returns how many questions an exam type draws.
func (e Exam) QuestionCount(t entities.ExamType) int {
	if t == entities.ExamTypeShort {
		return e.ShortQuestionCount
	}
	return e.FullQuestionCount
}

// Plan converts the configured quotas into a selection plan.
func (e Exam) Plan() entities.SelectionPlan {
	plan := make(entities.SelectionPlan, 0, len(e.SelectionPlan))
	for _, p := range e.SelectionPlan {
		plan = append(plan, entities.Quota{Classification: p.Classification, Percent: p.Percent})
	}
	return plan
}

// Backfill converts the configured image targets into a backfill plan.
func (e Exam) Backfill() entities.BackfillPlan {
	plan := make(entities.BackfillPlan, 0, len(e.ImageBackfillPlan))
	for _, b := range e.ImageBackfillPlan {
		plan = append(plan, entities.Backfill{Classification: b.Classification, Count: b.Count})
	}
	return plan
}

// Explanations configures the generative explanation lookup.
type Explanations struct {
	APIKey    string        `mapstructure:"-"` // loaded from OPENAI_API_KEY
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"` // per question
}

// Enabled reports whether the generative lookup can be used.
func (e Explanations) Enabled() bool {
	return strings.TrimSpace(e.APIKey) != ""
}

// Location returns the parsed timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Load reads configuration from config files and environment variables.
// An empty path searches ./config and ./data for a file named "config".
func Load(path string) (*Config, error) {
	// Populate the environment from .env if present.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath("./data")
	}

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("password_salt", "PASSWORD_SALT")
	_ = v.BindEnv("master_password_full", "MASTER_PASSWORD_FULL")
	_ = v.BindEnv("master_password_short", "MASTER_PASSWORD_SHORT")
	_ = v.BindEnv("token_generator_password", "TOKEN_GENERATOR_PASSWORD")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.Explanations.APIKey = v.GetString("openai_api_key")

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log_level", "")
	v.SetDefault("timezone", "America/New_York")

	v.SetDefault("questions_path", "data/preguntas.json")
	v.SetDefault("short_questions_path", "data/preguntas_corto.json")
	v.SetDefault("report_dir", "reports")

	v.SetDefault("passwords_full_base", []string{})
	v.SetDefault("passwords_short_base", []string{})

	v.SetDefault("time_limit_seconds", 7200)
	v.SetDefault("time_limit_seconds_short", 1800)
	v.SetDefault("warning_time_seconds", 600)
	v.SetDefault("passing_score", 555)
	v.SetDefault("full_question_count", 140)
	v.SetDefault("short_question_count", 20)
	v.SetDefault("selection_plan", defaultSelectionPlan())
	v.SetDefault("image_backfill_plan", defaultBackfillPlan())

	v.SetDefault("explanations.base_url", "https://api.openai.com/v1")
	v.SetDefault("explanations.model", "gpt-4o-mini")
	v.SetDefault("explanations.max_tokens", 2048)
	v.SetDefault("explanations.timeout", "20s")
}

func defaultSelectionPlan() []map[string]any {
	return []map[string]any{
		{"classification": "Normal Anatomy, Perfusion, and Function", "percent": 21},
		{"classification": "Pathology, Perfusion, and Function", "percent": 32},
		{"classification": "Surgically Altered Anatomy and Pathology", "percent": 6},
		{"classification": "Physiologic Exams", "percent": 12},
		{"classification": "Ultrasound-guided Procedures/Intraoperative Assessment", "percent": 7},
		{"classification": "Quality Assurance, Safety, and Physical Principles", "percent": 14},
		{"classification": "Preparation,Documentation, and communication", "percent": 8},
	}
}

func defaultBackfillPlan() []map[string]any {
	return []map[string]any{
		{"classification": "Normal Anatomy, Perfusion, and Function", "count": 4},
		{"classification": "Pathology, Perfusion, and Function", "count": 4},
		{"classification": "Surgically Altered Anatomy and Pathology", "count": 2},
	}
}

// normalize trims secrets, parses the timezone and validates the plans.
func (c *Config) normalize() error {
	c.PasswordSalt = strings.TrimSpace(c.PasswordSalt)
	c.MasterPasswordFull = strings.TrimSpace(c.MasterPasswordFull)
	c.MasterPasswordShort = strings.TrimSpace(c.MasterPasswordShort)
	c.PasswordsFullBase = trimAll(c.PasswordsFullBase)
	c.PasswordsShortBase = trimAll(c.PasswordsShortBase)

	loc, err := ParseLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: timezone: %v", ErrInvalidConfig, err)
	}
	c.location = loc

	if err := c.Plan().Validate(); err != nil {
		return fmt.Errorf("%w: selection_plan: %v", ErrInvalidConfig, err)
	}
	for _, b := range c.ImageBackfillPlan {
		if b.Count < 0 {
			return fmt.Errorf("%w: image_backfill_plan: negative count for %q", ErrInvalidConfig, b.Classification)
		}
	}
	if c.TimeLimitSeconds <= 0 || c.TimeLimitSecondsShort <= 0 {
		return fmt.Errorf("%w: time limits must be positive", ErrInvalidConfig)
	}
	if c.FullQuestionCount <= 0 || c.ShortQuestionCount <= 0 {
		return fmt.Errorf("%w: question counts must be positive", ErrInvalidConfig)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
