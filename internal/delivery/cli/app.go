package cli

import (
	"math/rand/v2"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/aliskhannn/rvt-exam/internal/config"
	"github.com/aliskhannn/rvt-exam/internal/infra/openai"
	"github.com/aliskhannn/rvt-exam/internal/infra/report"
	"github.com/aliskhannn/rvt-exam/internal/logger"
	"github.com/aliskhannn/rvt-exam/internal/repository"
	"github.com/aliskhannn/rvt-exam/internal/service"
	"github.com/aliskhannn/rvt-exam/internal/storage"
)

// app holds the wired dependencies shared by commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	questions *repository.QuestionRepository
	codes     *service.AccessCodeEngine
}

func loadApp(configPath string) (*app, error) {
	if strings.TrimSpace(configPath) == "" {
		configPath = os.Getenv("EXAM_CONFIG")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		logger:    log,
		questions: repository.NewQuestionRepository(cfg.QuestionsPath, cfg.ShortQuestionsPath, log),
		codes:     service.NewAccessCodeEngine(cfg.AccessCodes, cfg.Location(), log),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

type examOptions struct {
	seed      uint64
	reportDir string
	noReport  bool
	explain   bool
	sessions  *storage.SessionStorage
}

// examService wires an ExamService from configuration.
func (a *app) examService(opts examOptions) *service.ExamService {
	var rng *rand.Rand
	if opts.seed != 0 {
		rng = rand.New(rand.NewPCG(opts.seed, opts.seed))
	}

	var explainer service.Explainer
	if opts.explain {
		explainer = service.NewExplanationService(a.completer(), a.cfg.Explanations.Timeout, a.logger)
	}

	var reports service.ReportWriter
	if !opts.noReport {
		dir := opts.reportDir
		if dir == "" {
			dir = a.cfg.ReportDir
		}
		reports = report.NewWriter(dir)
	}

	sessions := opts.sessions
	if sessions == nil {
		sessions = storage.NewSessionStorage()
	}

	return service.NewExamService(
		a.codes,
		a.questions,
		service.NewQuestionSelector(rng),
		sessions,
		explainer,
		reports,
		a.cfg.Exam,
		a.logger,
	)
}

// completer returns the generative client, or nil when no API key is set.
func (a *app) completer() service.ChatCompleter {
	ex := a.cfg.Explanations
	if !ex.Enabled() {
		return nil
	}
	client, err := openai.NewClient(ex.Model, ex.APIKey, ex.BaseURL, ex.MaxTokens, nil)
	if err != nil {
		a.logger.Warn("explanations disabled", zap.Error(err))
		return nil
	}
	return client
}
