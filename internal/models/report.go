package models

import "time"

// ReadinessStatus is the publication readiness of a result set.
type ReadinessStatus string

const (
	StatusDraft     ReadinessStatus = "DRAFT"
	StatusPublished ReadinessStatus = "PUBLISHED"
	StatusError     ReadinessStatus = "ERROR"
)

// ReportStatus is the per-student outcome of a publication run.
type ReportStatus string

const (
	ReportSuccess ReportStatus = "SUCCESS"
	ReportWarning ReportStatus = "WARNING"
	ReportError   ReportStatus = "ERROR"
)

// UnknownStudent is reported as the name of an orphaned result set.
const UnknownStudent = "Unknown"

// BatchReportEntry is one student's line in a [BatchReport].
type BatchReportEntry struct {
	StudentName string       `json:"student_name"`
	StudentID   string       `json:"student_id"`
	Term        string       `json:"term"`
	Status      ReportStatus `json:"status"`
	Message     string       `json:"message"`
}

// BatchReport is the outcome of one publication run, in result key order.
type BatchReport struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Entries    []BatchReportEntry `json:"entries"`
	Succeeded  int                `json:"succeeded"`
	Warned     int                `json:"warned"`
	Failed     int                `json:"failed"`
}

// Add appends an entry and updates the totals.
func (r *BatchReport) Add(e BatchReportEntry) {
	r.Entries = append(r.Entries, e)
	switch e.Status {
	case ReportSuccess:
		r.Succeeded++
	case ReportWarning:
		r.Warned++
	default:
		r.Failed++
	}
}

// Duration is the wall time of the run.
func (r *BatchReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// PublishOutcome is the successful result of publishing a single result set.
type PublishOutcome struct {
	StudentID      string       `json:"student_id"`
	StudentName    string       `json:"student_name"`
	Term           string       `json:"term"`
	Email          string       `json:"email"`
	Status         ReportStatus `json:"status"`
	Message        string       `json:"message"`
	Percentage     float64      `json:"percentage"`
	Grade          string       `json:"grade"`
	EntriesUpdated int64        `json:"entries_updated"`
}

// Delivery is one marksheet on its way to a student.
type Delivery struct {
	Address     string `json:"address"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Term        string `json:"term"`
	Filename    string `json:"filename"`
	Document    []byte `json:"-"`
}
