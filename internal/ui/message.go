package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStatusFetched MsgKind = iota
	MsgProgressUpdate
	MsgBatchComplete
	MsgPublishOneComplete
)

type statusFetched struct {
	summary *tasks.StatusSummary
	err     error
}

type batchComplete struct {
	report *models.BatchReport
	err    error
}

type publishOneComplete struct {
	outcome *models.PublishOutcome
	err     error
}

// statusFetchedMsg is the constructor for [MsgStatusFetched]
func statusFetchedMsg(summary *tasks.StatusSummary, err error) Msg {
	return Msg{kind: MsgStatusFetched, data: statusFetched{summary, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// batchCompleteMsg is the constructor for [MsgBatchComplete]
func batchCompleteMsg(report *models.BatchReport, err error) Msg {
	return Msg{kind: MsgBatchComplete, data: batchComplete{report, err}}
}

// publishOneCompleteMsg is the constructor for [MsgPublishOneComplete]
func publishOneCompleteMsg(outcome *models.PublishOutcome, err error) Msg {
	return Msg{kind: MsgPublishOneComplete, data: publishOneComplete{outcome, err}}
}
