package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/marksheet/internal/formatter"
	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/results"
	"github.com/desertthunder/marksheet/internal/tasks"
)

// Publisher is the slice of [tasks.Publisher] the TUI drives.
type Publisher interface {
	PublishBatch(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.BatchReport, error)
	PublishOne(ctx context.Context, studentID, term string) (*models.PublishOutcome, error)
	StatusSummary(ctx context.Context) (*tasks.StatusSummary, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	StatusListView
	DetailView
	ConfirmView
	PublishingView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	publisher Publisher
	width     int
	height    int

	summary  *tasks.StatusSummary
	list     list.Model
	selected *tasks.ResultStatus
	// batch is set while confirming or running a whole-class publication.
	batch bool

	progress     tasks.ProgressUpdate
	progressChan <-chan tasks.ProgressUpdate
	report       *models.BatchReport
	outcome      *models.PublishOutcome
	err          error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, publisher Publisher) *Model {
	return &Model{
		ctx:       ctx,
		view:      LoadingView,
		publisher: publisher,
		list:      list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads the status summary.
func (m *Model) Init() tea.Cmd {
	return m.fetchStatus()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && !m.list.SettingFilter() {
			return m, tea.Quit
		}
		switch m.view {
		case StatusListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == StatusListView {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStatusFetched:
		data := msg.data.(statusFetched)
		m.err = data.err
		if data.err != nil {
			m.view = ResultView
			return m, nil
		}
		m.summary = data.summary
		cmd := m.list.SetItems(summaryItems(data.summary))
		m.list.Title = fmt.Sprintf("Results · %d draft · %d published · %d error",
			len(data.summary.Drafts), len(data.summary.Published), len(data.summary.Errors))
		m.view = StatusListView
		return m, cmd

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.progressChan)

	case MsgBatchComplete:
		data := msg.data.(batchComplete)
		m.report, m.err = data.report, data.err
		m.progressChan = nil
		m.view = ResultView
		return m, nil

	case MsgPublishOneComplete:
		data := msg.data.(publishOneComplete)
		m.outcome, m.err = data.outcome, data.err
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.SettingFilter() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(resultItem); ok {
			rs := item.status
			m.selected = &rs
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.batch):
		if m.summary != nil && len(m.summary.Drafts)+len(m.summary.Errors) > 0 {
			m.batch = true
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.view = LoadingView
		return m, m.fetchStatus()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.selected = nil
		m.view = StatusListView
	case key.Matches(msg, m.keys.publish):
		if m.selected != nil && m.selected.Classification.Publishable() {
			m.batch = false
			m.view = ConfirmView
		}
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		if m.batch {
			m.view = StatusListView
		} else {
			m.view = DetailView
		}
		m.batch = false
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = PublishingView
		m.progress = tasks.ProgressUpdate{}
		if m.batch {
			return m, m.startBatch()
		}
		return m, m.publishSelected()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.refresh) || key.Matches(msg, m.keys.back) {
		m.report, m.outcome, m.err = nil, nil, nil
		m.selected = nil
		m.batch = false
		m.view = LoadingView
		return m, m.fetchStatus()
	}
	return m, nil
}

func (m *Model) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.publisher.StatusSummary(m.ctx)
		return statusFetchedMsg(summary, err)
	}
}

func (m *Model) publishSelected() tea.Cmd {
	k := m.selected.Set.Key
	return func() tea.Msg {
		outcome, err := m.publisher.PublishOne(m.ctx, k.StudentID, k.Term)
		return publishOneCompleteMsg(outcome, err)
	}
}

// startBatch runs the batch in one command and relays its progress through another.
func (m *Model) startBatch() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = progress

	run := func() tea.Msg {
		report, err := m.publisher.PublishBatch(m.ctx, progress)
		close(progress)
		return batchCompleteMsg(report, err)
	}

	return tea.Batch(run, waitForProgress(progress))
}

// waitForProgress yields the next progress update, or nothing once the channel closes.
func waitForProgress(progress <-chan tasks.ProgressUpdate) tea.Cmd {
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return styles.help.Render("Loading results...")
	case StatusListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case PublishingView:
		return m.renderPublishing()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.batch, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n%s", m.list.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	rs := m.selected
	if rs == nil {
		return ""
	}

	var b strings.Builder
	name := models.UnknownStudent
	if rs.Student != nil {
		name = rs.Student.Name
	}
	b.WriteString(styles.title.Render(fmt.Sprintf("%s · %s", name, rs.Set.Key.Term)))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(styles.label.Render(label) + value + "\n")
	}
	row("Student ID", rs.Set.Key.StudentID)
	if rs.Student != nil {
		row("Class", rs.Student.ClassName)
		row("Email", rs.Student.Email)
	}
	row("Status", styles.Status(string(rs.Classification.Status)))
	for _, is := range rs.Classification.Issues {
		row("Issue", styles.err.Render(is.Reason))
	}

	var table strings.Builder
	for _, e := range rs.Set.Entries {
		mark := formatter.FormatMarks(e.Marks)
		if e.Marks < results.PassMark {
			mark = styles.err.Render(mark)
		}
		published := ""
		if e.Published {
			published = styles.ok.Render(" ✓")
		}
		fmt.Fprintf(&table, "%-24s %6s%s\n", e.Subject, mark, published)
	}
	b.WriteString("\n" + styles.box.Render(strings.TrimRight(table.String(), "\n")) + "\n\n")

	s := rs.Summary
	row("Total", fmt.Sprintf("%s / %s", formatter.FormatMarks(s.TotalMarks), formatter.FormatMarks(s.FullMarks)))
	row("Percentage", fmt.Sprintf("%.2f%%", s.Percentage))
	row("Grade", s.Grade)

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if rs.Classification.Publishable() {
		helpKeys = []key.Binding{m.keys.publish, m.keys.back, m.keys.quit}
	}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderConfirm() string {
	var title, info string
	if m.batch {
		title = "Publish all unpublished results?"
		info = fmt.Sprintf("\nDrafts: %d\nWith issues (will be reported, not sent): %d\n",
			len(m.summary.Drafts), len(m.summary.Errors))
	} else {
		k := m.selected.Set.Key
		title = fmt.Sprintf("Publish %s for %s?", k.Term, k.StudentID)
		info = fmt.Sprintf("\nThe marksheet will be emailed to %s.\n", m.selected.Student.Email)
		if m.selected.Classification.Status == models.StatusPublished {
			info += styles.warn.Render("Already published: the marksheet will be sent again.") + "\n"
		}
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", styles.title.Render(title), info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderPublishing() string {
	title := styles.title.Render("Publishing Results")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchResults:
		phase = "Fetching unpublished results..."
	case tasks.Classify, tasks.Render, tasks.Dispatch, tasks.Commit, tasks.Complete:
		phase = fmt.Sprintf("Processing result sets (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Failed: %v", m.err)), helpView)
	}

	if m.outcome != nil {
		o := m.outcome
		return fmt.Sprintf("%s\n\n%s\nPercentage: %.2f%%  Grade: %s\n\n%s",
			styles.Status(string(o.Status)), o.Message, o.Percentage, o.Grade, helpView)
	}

	if m.report == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Publication Run Complete"))
	fmt.Fprintf(&b, "\n%s %d  %s %d  %s %d\n\n",
		styles.ok.Render("Succeeded"), m.report.Succeeded,
		styles.warn.Render("Warnings"), m.report.Warned,
		styles.err.Render("Failed"), m.report.Failed)
	for _, e := range m.report.Entries {
		fmt.Fprintf(&b, "  %s %s (%s, %s): %s\n", styles.Status(string(e.Status)), e.StudentName, e.StudentID, e.Term, e.Message)
	}
	b.WriteString("\n" + helpView)
	return b.String()
}
