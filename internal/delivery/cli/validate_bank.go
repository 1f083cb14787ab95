package cli

import (
	"fmt"
	"io"

	"github.com/aliskhannn/rvt-exam/internal/repository"
)

// runValidateBank builds the handler for the validate-bank command.
func runValidateBank(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs, common := newFlagSet(cmd, stderr)
		paths := fs.StringArray("path", nil, "Bank file to validate (repeatable; default: both configured banks)")
		strict := fs.Bool("strict", false, "Fail when any record is quarantined")
		if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return code
		}

		if len(*paths) == 0 {
			a, err := loadApp(common.configPath)
			if err != nil {
				fmt.Fprintf(stderr, "Configuration error:\n%v\n", err)
				return ExitError
			}
			defer a.close()
			*paths = []string{a.cfg.QuestionsPath, a.cfg.ShortQuestionsPath}
		}

		exit := ExitOK
		for _, path := range *paths {
			bank, err := repository.LoadBank(path)
			if bank != nil {
				renderBank(stdout, bank, common.noColor)
			}
			if err != nil {
				fmt.Fprintf(stderr, "Validation failed:\n%v\n", err)
				exit = ExitError
				continue
			}
			if *strict && len(bank.Rejected) > 0 {
				exit = ExitError
			}
		}
		return exit
	}
}
