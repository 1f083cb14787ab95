package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
	"github.com/aliskhannn/rvt-exam/internal/repository"
	"github.com/aliskhannn/rvt-exam/internal/service"
)

var (
	colorTitle = lipgloss.Color("33")
	colorOK    = lipgloss.Color("42")
	colorFail  = lipgloss.Color("196")
	colorMuted = lipgloss.Color("242")
)

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

func bold(text string, noColor bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

func renderOutcome(w io.Writer, out *service.Outcome, noColor bool) {
	r := out.Result
	statusColor := colorFail
	if out.Passed {
		statusColor = colorOK
	}

	fmt.Fprintln(w, stylize("Exam result", noColor, colorTitle))
	fmt.Fprintf(w, "Score:    %s / %d (passing %d)\n", bold(fmt.Sprint(r.Score), noColor), service.MaxScore, out.PassingScore)
	fmt.Fprintf(w, "Status:   %s\n", stylize(out.Status, noColor, statusColor))
	fmt.Fprintf(w, "Correct:  %d of %d (%d answered)\n", r.Correct, r.Total, r.Answered)
	fmt.Fprintln(w)

	renderBreakdown(w, r, noColor)

	if len(r.Incorrect) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, stylize("Review", noColor, colorTitle))
		for _, ia := range r.Incorrect {
			fmt.Fprintf(w, "%3d. %s\n", ia.Index+1, ia.Question.Statement)
			fmt.Fprintf(w, "     your answer: %s\n", ia.UserAnswer)
			fmt.Fprintf(w, "     correct:     %s\n", strings.Join(ia.Question.CorrectAnswers, ", "))
			if text, ok := out.Explanations[ia.Index]; ok {
				for _, line := range strings.Split(text, "\n") {
					fmt.Fprintln(w, stylize("     "+line, noColor, colorMuted))
				}
			}
		}
	}

	if out.ReportPath != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Report written to %s\n", out.ReportPath)
	}
}

func renderBreakdown(w io.Writer, r entities.ScoreResult, noColor bool) {
	width := len("Classification")
	for _, c := range r.Classifications {
		width = max(width, len(c))
	}
	header := fmt.Sprintf("%-*s  %7s  %5s  %7s", width, "Classification", "Correct", "Total", "Percent")
	fmt.Fprintln(w, bold(header, noColor))
	for _, c := range r.Classifications {
		stat := r.ByClassification[c]
		fmt.Fprintf(w, "%-*s  %7d  %5d  %6.1f%%\n", width, c, stat.Correct, stat.Total, stat.Percent())
	}
}

func renderBank(w io.Writer, bank *repository.Bank, noColor bool) {
	fmt.Fprintf(w, "%s: %d questions", bold(bank.Path, noColor), len(bank.Questions))
	if len(bank.Rejected) == 0 {
		fmt.Fprintln(w, " "+stylize("OK", noColor, colorOK))
		return
	}
	fmt.Fprintln(w, " "+stylize(fmt.Sprintf("%d quarantined", len(bank.Rejected)), noColor, colorFail))
	for _, rej := range bank.Rejected {
		label := fmt.Sprintf("record %d", rej.Index)
		if rej.ID != "" {
			label += fmt.Sprintf(" (id %s)", rej.ID)
		}
		fmt.Fprintf(w, "  %s: %s\n", label, stylize(rej.Reason, noColor, colorMuted))
	}
}
