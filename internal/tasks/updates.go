package tasks

import (
	"fmt"

	"github.com/desertthunder/marksheet/internal/models"
)

// ProgressUpdate represents a progress event during a publication run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current group number
	Total   int    // Total groups in this run
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchResults Phase = iota
	Classify
	Render
	Dispatch
	Commit
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchResults:
		return "fetch_results"
	case Classify:
		return "classify"
	case Render:
		return "render"
	case Dispatch:
		return "dispatch"
	case Commit:
		return "commit"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func fetchResultsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchResults,
		Message: "Fetching unpublished results...",
	}
}

func foundGroupsUpdate(entries, groups int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchResults,
		Total:   groups,
		Message: fmt.Sprintf("Found %d unpublished entries across %d result sets", entries, groups),
	}
}

func phaseUpdate(phase Phase, step, total int, key models.ResultKey) ProgressUpdate {
	var verb string
	switch phase {
	case Classify:
		verb = "Checking"
	case Render:
		verb = "Rendering marksheet for"
	case Dispatch:
		verb = "Sending marksheet for"
	case Commit:
		verb = "Publishing"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s...", step, total, verb, key),
	}
}

func completedUpdate(step, total int, entry models.BatchReportEntry) ProgressUpdate {
	mark := "✓"
	switch entry.Status {
	case models.ReportWarning:
		mark = "!"
	case models.ReportError:
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   Complete,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%s): %s", step, total, mark, entry.StudentName, entry.Term, entry.Message),
		Data:    entry,
	}
}
