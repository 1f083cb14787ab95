// Package report writes exam results as Excel workbooks.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

const (
	SheetResults   = "Results"
	SheetBreakdown = "Breakdown"
	SheetReview    = "Review"
)

// Data is everything a result workbook shows.
type Data struct {
	SessionID    uuid.UUID // keeps file names unique per session
	Name         string
	Email        string
	ExamType     entities.ExamType
	Result       entities.ScoreResult
	PassingScore int
	Explanations map[int]string // keyed by question index
	Date         time.Time
}

// Writer writes result workbooks into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer that stores workbooks in dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Write renders data into a new workbook and returns its path.
func (w *Writer) Write(data Data) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if data.Date.IsZero() {
		data.Date = time.Now()
	}
	if data.SessionID == uuid.Nil {
		data.SessionID = uuid.New()
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetBreakdown); err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetReview); err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create style: %w", err)
	}

	if err := writeResults(f, data, header); err != nil {
		return "", err
	}
	if err := writeBreakdown(f, data, header); err != nil {
		return "", err
	}
	if err := writeReview(f, data, header); err != nil {
		return "", err
	}
	f.SetActiveSheet(0)

	name := fmt.Sprintf("results_%s_%s_%s.xlsx",
		unsafeFileChars.ReplaceAllString(strings.ToLower(data.Email), "_"),
		data.Date.Format("20060102-150405"),
		data.SessionID,
	)
	path := filepath.Join(w.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

func writeResults(f *excelize.File, data Data, header int) error {
	rows := [][]any{
		{"Name", data.Name},
		{"Email", data.Email},
		{"Exam Type", data.ExamType.Label()},
		{"Score", data.Result.Score},
		{"Passing Score", data.PassingScore},
		{"Status", data.Result.Status(data.PassingScore)},
		{"Correct", data.Result.Correct},
		{"Answered", data.Result.Answered},
		{"Total Questions", data.Result.Total},
		{"Date", data.Date.Format("2006-01-02 15:04")},
	}
	if err := setRows(f, SheetResults, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetResults, "A1", fmt.Sprintf("A%d", len(rows)), header); err != nil {
		return fmt.Errorf("style %s: %w", SheetResults, err)
	}
	return f.SetColWidth(SheetResults, "A", "B", 24)
}

func writeBreakdown(f *excelize.File, data Data, header int) error {
	rows := [][]any{{"Classification", "Correct", "Total", "Percent"}}
	for _, class := range data.Result.Classifications {
		stat := data.Result.ByClassification[class]
		rows = append(rows, []any{class, stat.Correct, stat.Total, fmt.Sprintf("%.1f%%", stat.Percent())})
	}
	if err := setRows(f, SheetBreakdown, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetBreakdown, "A1", "D1", header); err != nil {
		return fmt.Errorf("style %s: %w", SheetBreakdown, err)
	}
	return f.SetColWidth(SheetBreakdown, "A", "A", 56)
}

func writeReview(f *excelize.File, data Data, header int) error {
	rows := [][]any{{"Question", "Statement", "Your Answer", "Correct Answer", "Explanation"}}
	incorrect := append([]entities.IncorrectAnswer(nil), data.Result.Incorrect...)
	sort.Slice(incorrect, func(i, j int) bool { return incorrect[i].Index < incorrect[j].Index })
	for _, ia := range incorrect {
		rows = append(rows, []any{
			ia.Index + 1,
			ia.Question.Statement,
			ia.UserAnswer,
			strings.Join(ia.Question.CorrectAnswers, ", "),
			data.Explanations[ia.Index],
		})
	}
	if err := setRows(f, SheetReview, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetReview, "A1", "E1", header); err != nil {
		return fmt.Errorf("style %s: %w", SheetReview, err)
	}
	return f.SetColWidth(SheetReview, "B", "E", 48)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
