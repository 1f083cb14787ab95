package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

// runCompose builds the handler for the compose command.
func runCompose(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs, common := newFlagSet(cmd, stderr)
		email := fs.String("email", "", "Student email")
		name := fs.String("name", "", "Student name")
		examType := fs.String("type", string(entities.ExamTypeFull), "Exam type: full or short")
		seed := fs.Uint64("seed", 0, "Random seed for a reproducible exam (0 picks one)")
		outPath := fs.String("out", "", "Write the session JSON to this file instead of stdout")
		if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return code
		}
		if !requireFlag(cmd, stderr, "email", *email) || !requireFlag(cmd, stderr, "name", *name) {
			return ExitUsage
		}
		t, err := entities.ParseExamType(*examType)
		if err != nil {
			fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
			return ExitUsage
		}

		a, err := loadApp(common.configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Configuration error:\n%v\n", err)
			return ExitError
		}
		defer a.close()

		svc := a.examService(examOptions{seed: *seed, noReport: true})
		session, err := svc.Start(context.Background(), *email, *name, t)
		if err != nil {
			fmt.Fprintf(stderr, "Compose failed: %v\n", err)
			return ExitError
		}

		// The written document owns the session from here on.
		svc.Release(session.ID)

		payload, err := json.MarshalIndent(session, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Compose failed: %v\n", err)
			return ExitError
		}
		payload = append(payload, '\n')

		if *outPath == "" {
			_, _ = stdout.Write(payload)
			return ExitOK
		}
		if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
			fmt.Fprintf(stderr, "Compose failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "%s %d questions written to %s\n",
			stylize(t.Label()+" exam:", common.noColor, colorTitle), len(session.Questions), *outPath)
		return ExitOK
	}
}
