package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/tasks"
)

var _ list.Item = resultItem{}

// resultItem wraps [tasks.ResultStatus] to implement [list.Item].
type resultItem struct {
	status tasks.ResultStatus
}

func (i resultItem) name() string {
	if i.status.Student == nil {
		return models.UnknownStudent
	}
	return i.status.Student.Name
}

func (i resultItem) FilterValue() string {
	return i.name() + " " + i.status.Set.Key.String()
}

func (i resultItem) Title() string {
	return fmt.Sprintf("%s (%s) · %s", i.name(), i.status.Set.Key.StudentID, i.status.Set.Key.Term)
}

func (i resultItem) Description() string {
	c := i.status.Classification
	if len(c.Issues) > 0 {
		return fmt.Sprintf("%s • %s", styles.Status(string(c.Status)), c.Labels())
	}
	s := i.status.Summary
	return fmt.Sprintf("%s • %d subjects • %.2f%% %s", styles.Status(string(c.Status)), len(i.status.Set.Entries), s.Percentage, s.Grade)
}

// summaryItems flattens a status summary into list order: drafts, errors, then published.
func summaryItems(s *tasks.StatusSummary) []list.Item {
	items := make([]list.Item, 0, s.Total())
	for _, group := range [][]tasks.ResultStatus{s.Drafts, s.Errors, s.Published} {
		for _, rs := range group {
			items = append(items, resultItem{status: rs})
		}
	}
	return items
}
