package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
	"github.com/aliskhannn/rvt-exam/internal/service"
)

// runGenCode builds the handler for the gencode command.
func runGenCode(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs, common := newFlagSet(cmd, stderr)
		email := fs.String("email", "", "Student email")
		examType := fs.String("type", string(entities.ExamTypeFull), "Exam type: full or short")
		date := fs.String("date", "", "Date the code is valid for, YYYY-MM-DD (default: today)")
		adminPassword := fs.String("admin-password", "", "Administrator password (default: $EXAM_ADMIN_PASSWORD)")
		if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return code
		}
		if !requireFlag(cmd, stderr, "email", *email) {
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

		if *date == "" {
			*date = a.codes.Today()
		}
		if *adminPassword == "" {
			*adminPassword = os.Getenv("EXAM_ADMIN_PASSWORD")
		}

		cred, err := a.codes.Generate(service.GenerateRequest{
			AdminPassword: *adminPassword,
			Email:         *email,
			ExamType:      t,
			Date:          *date,
		})
		if err != nil {
			fmt.Fprintf(stderr, "%s %v\n", stylize("Rejected:", common.noColor, colorFail), err)
			return ExitError
		}

		fmt.Fprintf(stdout, "%s\n", bold(cred.Code, common.noColor))
		fmt.Fprintln(stdout, stylize(
			fmt.Sprintf("%s exam for %s, valid on %s", cred.ExamType.Label(), cred.Email, cred.Date),
			common.noColor, colorMuted))
		return ExitOK
	}
}
