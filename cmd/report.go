package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/tasks"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	successStyle = cellStyle.Foreground(lipgloss.Color("10"))
	warningStyle = cellStyle.Foreground(lipgloss.Color("11"))
	errorStyle   = cellStyle.Foreground(lipgloss.Color("9"))
)

// statusStyle colors report and readiness statuses alike.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case string(models.ReportSuccess), string(models.StatusPublished):
		return successStyle
	case string(models.ReportWarning), string(models.StatusDraft):
		return warningStyle
	case string(models.ReportError): // same value as models.StatusError
		return errorStyle
	}
	return cellStyle
}

func statusMark(status string) string {
	switch status {
	case string(models.ReportSuccess):
		return "✓"
	case string(models.ReportWarning):
		return "!"
	}
	return "✗"
}

// styledTable builds a bordered table whose statusCol cells are colored by value.
func styledTable(headers []string, rows [][]string, statusCol int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == statusCol && row >= 0 && row < len(rows):
				return statusStyle(rows[row][col])
			}
			return cellStyle
		})
}

func reportTable(report *models.BatchReport) string {
	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, []string{e.StudentID, e.StudentName, e.Term, string(e.Status), e.Message})
	}
	return styledTable([]string{"Student", "Name", "Term", "Status", "Message"}, rows, 3).String()
}

func statusTable(summary *tasks.StatusSummary) string {
	var rows [][]string
	for _, group := range [][]tasks.ResultStatus{summary.Drafts, summary.Errors, summary.Published} {
		for _, rs := range group {
			name := models.UnknownStudent
			if rs.Student != nil {
				name = rs.Student.Name
			}
			rows = append(rows, []string{
				rs.Set.Key.StudentID,
				name,
				rs.Set.Key.Term,
				string(rs.Classification.Status),
				fmt.Sprintf("%.2f%%", rs.Summary.Percentage),
				rs.Summary.Grade,
				rs.Classification.Labels(),
			})
		}
	}
	return styledTable([]string{"Student", "Name", "Term", "Status", "Percent", "Grade", "Issues"}, rows, 3).String()
}
