package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
	"github.com/aliskhannn/rvt-exam/internal/storage"
)

// runScore builds the handler for the score command.
func runScore(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs, common := newFlagSet(cmd, stderr)
		sessionPath := fs.String("session", "", "Session JSON written by compose and filled in by the exam UI")
		reportDir := fs.String("report-dir", "", "Directory for the result workbook (default: report_dir from config)")
		noReport := fs.Bool("no-report", false, "Skip writing the result workbook")
		explain := fs.Bool("explain", false, "Look up explanations for incorrect answers")
		if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return code
		}
		if !requireFlag(cmd, stderr, "session", *sessionPath) {
			return ExitUsage
		}

		session, err := readSession(*sessionPath)
		if err != nil {
			fmt.Fprintf(stderr, "Score failed: %v\n", err)
			return ExitError
		}

		a, err := loadApp(common.configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Configuration error:\n%v\n", err)
			return ExitError
		}
		defer a.close()

		sessions := storage.NewSessionStorage()
		sessions.Store(session)
		svc := a.examService(examOptions{
			reportDir: *reportDir,
			noReport:  *noReport,
			explain:   *explain,
			sessions:  sessions,
		})

		outcome, err := svc.Finish(context.Background(), session.ID)
		svc.Release(session.ID)
		if err != nil {
			fmt.Fprintf(stderr, "Score failed: %v\n", err)
			return ExitError
		}
		renderOutcome(stdout, outcome, common.noColor)
		return ExitOK
	}
}

func readSession(path string) (*entities.ExamSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var session entities.ExamSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if len(session.Questions) == 0 {
		return nil, errors.New("session has no questions")
	}
	if session.Answers == nil {
		session.Answers = make(entities.Answers)
	}
	return &session, nil
}
