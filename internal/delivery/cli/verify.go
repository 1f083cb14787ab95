package cli

import (
	"fmt"
	"io"
)

// runVerify builds the handler for the verify command.
func runVerify(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs, common := newFlagSet(cmd, stderr)
		email := fs.String("email", "", "Student email")
		code := fs.String("code", "", "Access code")
		if exit, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return exit
		}
		if !requireFlag(cmd, stderr, "email", *email) || !requireFlag(cmd, stderr, "code", *code) {
			return ExitUsage
		}

		a, err := loadApp(common.configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Configuration error:\n%v\n", err)
			return ExitError
		}
		defer a.close()

		examType, ok := a.codes.Verify(*code, *email)
		if !ok {
			fmt.Fprintln(stdout, stylize("Access denied", common.noColor, colorFail))
			return ExitError
		}
		fmt.Fprintf(stdout, "%s: %s exam\n", stylize("Access granted", common.noColor, colorOK), examType.Label())
		return ExitOK
	}
}
