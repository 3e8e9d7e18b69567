package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/marksheet/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
	box   lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewBold(w),
		help:  NewEm(h),
		label: NewBold(h).Width(16),
		box:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)).Padding(0, 1),
	}
}

// Status colors a readiness or report status: green for published/success, orange for
// draft/warning and red for errors.
func (p *Palette) Status(status string) string {
	switch status {
	case string(models.StatusPublished), string(models.ReportSuccess):
		return p.ok.Render(status)
	case string(models.StatusDraft), string(models.ReportWarning):
		return p.warn.Render(status)
	default:
		return p.err.Render(status)
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
