// Package cli implements the examctl operator commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type Command struct {
	Name    string
	Summary string
	Usage   []string
	Run     func(args []string, stdout, stderr io.Writer) int
}

// Run dispatches args to the matching command and returns its exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return ExitUsage
	}
	if isHelpArg(args[0]) {
		printUsage(stdout)
		return ExitOK
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}

	return cmd.Run(args[1:], stdout, stderr)
}

func findCommand(name string) *Command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  examctl <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-14s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w, "\nUse \"examctl <command> --help\" for more information.")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}

func command(name, summary string, usage []string, runner func(cmd *Command) func(args []string, stdout, stderr io.Writer) int) *Command {
	cmd := &Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
	}
	cmd.Run = runner(cmd)
	return cmd
}

var commands = []*Command{
	command("gencode", "Generate a student's access code for a date", []string{
		"examctl gencode --email <email> --date <YYYY-MM-DD> [--type full|short] [--admin-password <secret>]",
	}, runGenCode),
	command("verify", "Check an access code for an email", []string{
		"examctl verify --email <email> --code <code>",
	}, runVerify),
	command("compose", "Compose an exam and write the session as JSON", []string{
		"examctl compose --email <email> --name <name> [--type full|short] [--seed <n>] [--out <path>]",
	}, runCompose),
	command("score", "Score a session file and write the result workbook", []string{
		"examctl score --session <path> [--report-dir <dir>] [--no-report] [--explain]",
	}, runScore),
	command("validate-bank", "Validate question bank files", []string{
		"examctl validate-bank [--path <file>]... [--strict]",
	}, runValidateBank),
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configPath string
	noColor    bool
}

func newFlagSet(cmd *Command, stderr io.Writer) (*pflag.FlagSet, *commonFlags) {
	fs := pflag.NewFlagSet(cmd.Name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {}
	common := &commonFlags{}
	fs.StringVar(&common.configPath, "config", "", "Path to config file (default: $EXAM_CONFIG, then ./config or ./data)")
	fs.BoolVar(&common.noColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored output")
	return fs, common
}

// parseFlags parses args and reports the exit code to return when parsing
// does not lead to running the command.
func parseFlags(cmd *Command, fs *pflag.FlagSet, args []string, stdout, stderr io.Writer) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandUsage(cmd, stdout)
			fs.SetOutput(stdout)
			fs.PrintDefaults()
			return ExitOK, false
		}
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		printCommandUsage(cmd, stderr)
		return ExitUsage, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		printCommandUsage(cmd, stderr)
		return ExitUsage, false
	}
	return ExitOK, true
}

func requireFlag(cmd *Command, stderr io.Writer, name, value string) bool {
	if strings.TrimSpace(value) != "" {
		return true
	}
	fmt.Fprintf(stderr, "--%s is required\n", name)
	printCommandUsage(cmd, stderr)
	return false
}
