// package formatter renders marksheets and converts publication data to and from CSV and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
)

// ExportReportToCSV converts a BatchReport to CSV format with columns: Student ID, Student Name, Term, Status, Message
func ExportReportToCSV(report *models.BatchReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Student ID", "Student Name", "Term", "Status", "Message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range report.Entries {
		record := []string{e.StudentID, e.StudentName, e.Term, string(e.Status), e.Message}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportReportToText converts a BatchReport to plain text format
func ExportReportToText(report *models.BatchReport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Run: %s\n", report.RunID)
	fmt.Fprintf(&buf, "Succeeded: %d  Warnings: %d  Failed: %d\n\n", report.Succeeded, report.Warned, report.Failed)

	for i, e := range report.Entries {
		fmt.Fprintf(&buf, "%d. [%s] %s (%s, %s): %s\n", i+1, e.Status, e.StudentName, e.StudentID, e.Term, e.Message)
	}

	return buf.Bytes(), nil
}

// WriteCSVReport writes the report as CSV.
//
// Defaults to report_{run id}.csv as the filename.
func WriteCSVReport(report *models.BatchReport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("report_%s.csv", report.RunID)
	}

	data, err := ExportReportToCSV(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}

// csvTable reads a headed CSV and indexes its columns by lower-cased header name.
type csvTable struct {
	columns map[string]int
	rows    [][]string
}

func readCSVTable(r io.Reader, required ...string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed CSV: %v", shared.ErrInvalidInput, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: CSV has no header row", shared.ErrInvalidInput)
	}

	t := &csvTable{columns: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		t.columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			return nil, fmt.Errorf("%w: CSV is missing column %q", shared.ErrInvalidInput, col)
		}
	}
	return t, nil
}

func (t *csvTable) get(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *csvTable) float(row []string, col string, line int) (float64, error) {
	v := t.get(row, col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %s %q is not a number", shared.ErrInvalidInput, line, col, v)
	}
	return f, nil
}

// ParseMarksCSV reads mark entries from a CSV with at least the columns
// student_id, subject, marks and term. project_marks, grade and class_name are optional.
func ParseMarksCSV(r io.Reader) ([]models.MarkEntry, error) {
	t, err := readCSVTable(r, "student_id", "subject", "marks", "term")
	if err != nil {
		return nil, err
	}

	entries := make([]models.MarkEntry, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2

		marks, err := t.float(row, "marks", line)
		if err != nil {
			return nil, err
		}
		project, err := t.float(row, "project_marks", line)
		if err != nil {
			return nil, err
		}

		entries = append(entries, models.MarkEntry{
			StudentID:    t.get(row, "student_id"),
			Subject:      t.get(row, "subject"),
			Marks:        marks,
			ProjectMarks: project,
			Grade:        t.get(row, "grade"),
			Term:         shared.NormalizeTerm(t.get(row, "term")),
			ClassName:    t.get(row, "class_name"),
		})
	}

	return entries, nil
}

// ParseStudentsCSV reads students from a CSV with at least the columns id and name.
// class_name, roll_number, email, blocked and block_reason are optional.
func ParseStudentsCSV(r io.Reader) ([]models.StudentSnapshot, error) {
	t, err := readCSVTable(r, "id", "name")
	if err != nil {
		return nil, err
	}

	students := make([]models.StudentSnapshot, 0, len(t.rows))
	for i, row := range t.rows {
		blocked := false
		if v := t.get(row, "blocked"); v != "" {
			blocked, err = strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: blocked %q is not a boolean", shared.ErrInvalidInput, i+2, v)
			}
		}

		students = append(students, models.StudentSnapshot{
			ID:          t.get(row, "id"),
			Name:        t.get(row, "name"),
			ClassName:   t.get(row, "class_name"),
			RollNumber:  t.get(row, "roll_number"),
			Email:       t.get(row, "email"),
			Blocked:     blocked,
			BlockReason: t.get(row, "block_reason"),
		})
	}

	return students, nil
}
