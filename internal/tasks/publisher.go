package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marksheet/internal/formatter"
	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/results"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/hashicorp/go-multierror"
)

// MaxWorkers caps concurrent result set processing.
const MaxWorkers = 10

const (
	pathBatch  = "batch"
	pathSingle = "single"
)

// Batch report messages.
const (
	msgRenderFailed   = "Failed to generate marksheet: %v"
	msgDispatchFailed = "Email sending failed."
	msgCommitFailed   = "Email sent but publish status could not be updated."
	msgPublished      = "Result published and emailed to %s."
	msgBelowPass      = "%d subject(s) below pass mark (%d)."
	msgUnexpected     = "Unexpected error: %v"
	msgCancelled      = "Run cancelled before processing."
)

// MarkStore reads mark entries and commits their publication.
type MarkStore interface {
	FindUnpublished(ctx context.Context) ([]models.MarkEntry, error)
	FindAll(ctx context.Context) ([]models.MarkEntry, error)
	FindByStudentAndTerm(ctx context.Context, studentID, term string) ([]models.MarkEntry, error)

	// MarkPublished flips the publish flag on every listed entry that is still
	// unpublished, all or nothing, and returns the number of rows changed.
	MarkPublished(ctx context.Context, ids []string) (int64, error)
}

// StudentStore resolves student references. A missing student is [shared.ErrNotFound].
type StudentStore interface {
	Resolve(ctx context.Context, studentID string) (*models.StudentSnapshot, error)
}

// Renderer draws a marksheet document.
type Renderer interface {
	Render(m *formatter.Marksheet) ([]byte, error)
}

// Dispatcher delivers a rendered marksheet. Only err != nil is inspected.
type Dispatcher interface {
	Send(ctx context.Context, d models.Delivery) error
}

// Publisher moves result sets from draft to published: classify, grade, render,
// dispatch, then commit. A result set is only committed after its marksheet was sent.
type Publisher struct {
	marks      MarkStore
	students   StudentStore
	renderer   Renderer
	dispatcher Dispatcher

	workers  int
	clock    shared.Clock
	logger   *log.Logger
	recorder Recorder
}

// Option configures a [Publisher].
type Option func(*Publisher)

// WithWorkers processes up to n result sets concurrently, capped at [MaxWorkers].
func WithWorkers(n int) Option {
	return func(p *Publisher) {
		switch {
		case n < 1:
			n = 1
		case n > MaxWorkers:
			n = MaxWorkers
		}
		p.workers = n
	}
}

// WithClock sets the time source for report timestamps, marksheet generation times
// and publish timestamps.
func WithClock(c shared.Clock) Option {
	return func(p *Publisher) { p.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(p *Publisher) { p.recorder = r }
}

// NewPublisher creates a sequential [Publisher] that logs to stderr and records no metrics
// unless options say otherwise.
func NewPublisher(marks MarkStore, students StudentStore, renderer Renderer, dispatcher Dispatcher, opts ...Option) *Publisher {
	p := &Publisher{
		marks:      marks,
		students:   students,
		renderer:   renderer,
		dispatcher: dispatcher,
		workers:    1,
		recorder:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = shared.NewLogger(nil)
	}
	return p
}

// sendProgress sends a progress update to the channel if it's not nil.
// Non-blocking send: if channel is full, update is dropped.
func (p *Publisher) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}

	select {
	case progress <- update:
	default:
	}
}

// groupJob is one result set waiting for a worker; index is its report position.
type groupJob struct {
	index int
	set   models.ResultSet
}

type groupResult struct {
	index int
	entry models.BatchReportEntry
}

// PublishBatch publishes every unpublished result set and reports each outcome in
// result key order. Only a failure to fetch the unpublished entries fails the run;
// every per-set failure, including a panic, becomes an ERROR entry for that set alone.
func (p *Publisher) PublishBatch(ctx context.Context, progress chan<- ProgressUpdate) (*models.BatchReport, error) {
	report := &models.BatchReport{RunID: shared.GenerateID(), StartedAt: p.clock.Now()}
	logger := shared.WithLogger(p.logger, "run_id", report.RunID)

	p.sendProgress(progress, fetchResultsUpdate())
	entries, err := p.marks.FindUnpublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unpublished results: %w", err)
	}

	sets := results.Group(entries)
	total := len(sets)
	p.sendProgress(progress, foundGroupsUpdate(len(entries), total))
	logger.Info("publication run started", "entries", len(entries), "result_sets", total, "workers", p.workers)

	outcomes := make([]models.BatchReportEntry, total)
	if p.workers <= 1 || total <= 1 {
		for i, set := range sets {
			outcomes[i] = p.runGroup(ctx, logger, progress, i+1, total, set)
			p.sendProgress(progress, completedUpdate(i+1, total, outcomes[i]))
		}
	} else {
		p.runPool(ctx, logger, progress, sets, outcomes)
	}

	for _, e := range outcomes {
		report.Add(e)
		p.recorder.RecordOutcome(pathBatch, e.Status)
	}
	report.FinishedAt = p.clock.Now()
	p.recorder.RecordRun(report)

	logger.Info("publication run finished",
		"succeeded", report.Succeeded, "warned", report.Warned, "failed", report.Failed,
		"duration", report.Duration())
	return report, nil
}

// runPool fans result sets out to workers. Each worker handles a whole set, so
// render, dispatch and commit stay ordered within a set.
func (p *Publisher) runPool(
	ctx context.Context,
	logger *log.Logger,
	progress chan<- ProgressUpdate,
	sets []models.ResultSet,
	outcomes []models.BatchReportEntry,
) {
	total := len(sets)
	jobs := make(chan groupJob, total)
	done := make(chan groupResult, total)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				done <- groupResult{
					index: job.index,
					entry: p.runGroup(ctx, logger, progress, job.index+1, total, job.set),
				}
			}
		}()
	}

	for i, set := range sets {
		jobs <- groupJob{index: i, set: set}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for res := range done {
		completed++
		outcomes[res.index] = res.entry
		p.sendProgress(progress, completedUpdate(completed, total, res.entry))
	}
}

// runGroup processes one result set and converts any panic into an ERROR entry.
func (p *Publisher) runGroup(
	ctx context.Context,
	logger *log.Logger,
	progress chan<- ProgressUpdate,
	step, total int,
	set models.ResultSet,
) (entry models.BatchReportEntry) {
	entry = models.BatchReportEntry{
		StudentName: models.UnknownStudent,
		StudentID:   set.Key.StudentID,
		Term:        set.Key.Term,
	}

	defer func() {
		if r := recover(); r != nil {
			entry.Status = models.ReportError
			entry.Message = fmt.Sprintf(msgUnexpected, r)
			logger.Error("result set panicked", "student_id", set.Key.StudentID, "term", set.Key.Term, "panic", r)
		}
	}()

	if ctx.Err() != nil {
		entry.Status = models.ReportError
		entry.Message = msgCancelled
		return entry
	}

	p.processGroup(ctx, logger, progress, step, total, set, &entry)

	logger.Info("result set processed",
		"student_id", entry.StudentID, "term", entry.Term, "status", entry.Status)
	return entry
}

// processGroup fills entry with the outcome of publishing set. The student name is
// set as soon as it is known so a later panic still reports it.
func (p *Publisher) processGroup(
	ctx context.Context,
	logger *log.Logger,
	progress chan<- ProgressUpdate,
	step, total int,
	set models.ResultSet,
	entry *models.BatchReportEntry,
) {
	fail := func(msg string) {
		entry.Status = models.ReportError
		entry.Message = msg
	}

	p.sendProgress(progress, phaseUpdate(Classify, step, total, set.Key))
	student, err := p.resolve(ctx, set.Key.StudentID)
	if err != nil {
		fail(fmt.Sprintf(msgUnexpected, err))
		return
	}
	if student != nil {
		entry.StudentName = student.Name
	}

	verdict := results.Classify(set, student)
	if !verdict.Publishable() {
		fail(verdict.Reasons())
		return
	}

	summary := results.CalculateSet(set)

	p.sendProgress(progress, phaseUpdate(Render, step, total, set.Key))
	doc, err := p.render(student, set, summary)
	if err != nil {
		logger.Error("render failed", "student_id", student.ID, "term", set.Key.Term, "error", err)
		fail(fmt.Sprintf(msgRenderFailed, renderDetail(err)))
		return
	}

	p.sendProgress(progress, phaseUpdate(Dispatch, step, total, set.Key))
	if err := p.dispatch(ctx, student, set, doc); err != nil {
		logger.Error("dispatch failed", "student_id", student.ID, "term", set.Key.Term, "email", student.Email, "error", err)
		fail(msgDispatchFailed)
		return
	}

	p.sendProgress(progress, phaseUpdate(Commit, step, total, set.Key))
	if _, err := p.commit(ctx, set); err != nil {
		logger.Error("commit failed after dispatch", "student_id", student.ID, "term", set.Key.Term, "error", err)
		fail(msgCommitFailed)
		return
	}

	entry.Status, entry.Message = publishedMessage(student, summary)
}

// PublishOne publishes a single student's result set for a term, returning a distinct
// error kind for each way it can fail:
//   - [shared.ErrNotFound] : no entries for the student and term
//   - [shared.ErrOrphanedData] : the student does not exist
//   - [shared.ErrInvalidRecipient], [shared.ErrAccountRestricted] : classification issues,
//     combined when both apply
//   - [shared.ErrRenderFailure], [shared.ErrDispatchFailure] : nothing was committed
//   - [shared.ErrInternalProcessing] : anything else, including a failed commit
//
// Entries that are already published are sent again; the commit then changes nothing.
func (p *Publisher) PublishOne(ctx context.Context, studentID, term string) (outcome *models.PublishOutcome, err error) {
	studentID = strings.TrimSpace(studentID)
	term = shared.NormalizeTerm(term)
	if studentID == "" || term == "" {
		return nil, fmt.Errorf("%w: student id and term are required", shared.ErrMissingArgument)
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("%w: %v", shared.ErrInternalProcessing, r)
		}
		status := models.ReportError
		if outcome != nil {
			status = outcome.Status
		}
		p.recorder.RecordOutcome(pathSingle, status)
	}()

	logger := shared.WithLogger(p.logger, "student_id", studentID, "term", term)

	entries, err := p.marks.FindByStudentAndTerm(ctx, studentID, term)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch results: %v", shared.ErrInternalProcessing, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no results for %s in %s", shared.ErrNotFound, studentID, term)
	}

	sets := results.Group(entries)
	if len(sets) != 1 {
		return nil, fmt.Errorf("%w: expected one result set, found %d", shared.ErrInternalProcessing, len(sets))
	}
	set := sets[0]

	student, err := p.resolve(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve student: %v", shared.ErrInternalProcessing, err)
	}

	verdict := results.Classify(set, student)
	if !verdict.Publishable() {
		logger.Warn("result set not publishable", "issues", verdict.Labels())
		return nil, issuesError(verdict)
	}

	summary := results.CalculateSet(set)

	doc, err := p.render(student, set, summary)
	if err != nil {
		logger.Error("render failed", "error", err)
		return nil, err
	}

	if err := p.dispatch(ctx, student, set, doc); err != nil {
		logger.Error("dispatch failed", "email", student.Email, "error", err)
		return nil, fmt.Errorf("%w: could not send to %s", shared.ErrDispatchFailure, student.Email)
	}

	updated, err := p.commit(ctx, set)
	if err != nil {
		logger.Error("commit failed after dispatch", "error", err)
		return nil, fmt.Errorf("%w: %s", shared.ErrInternalProcessing, msgCommitFailed)
	}

	status, message := publishedMessage(student, summary)
	logger.Info("result set published", "status", status, "entries_updated", updated)

	return &models.PublishOutcome{
		StudentID:      student.ID,
		StudentName:    student.Name,
		Term:           set.Key.Term,
		Email:          student.Email,
		Status:         status,
		Message:        message,
		Percentage:     summary.Percentage,
		Grade:          summary.Grade,
		EntriesUpdated: updated,
	}, nil
}

// issuesError turns a non-publishable classification into one error per issue.
// A single issue is returned unwrapped.
func issuesError(c results.Classification) error {
	if len(c.Issues) == 1 {
		is := c.Issues[0]
		return fmt.Errorf("%w: %s", is.Err(), is.Label)
	}

	var merr *multierror.Error
	for _, is := range c.Issues {
		merr = multierror.Append(merr, fmt.Errorf("%w: %s", is.Err(), is.Label))
	}
	merr.ErrorFormat = func(errs []error) string {
		parts := make([]string, len(errs))
		for i, e := range errs {
			parts[i] = e.Error()
		}
		return strings.Join(parts, "; ")
	}
	return merr
}

// StatusSummary classifies every result set in the store without changing anything.
type StatusSummary struct {
	Drafts    []ResultStatus `json:"drafts"`
	Published []ResultStatus `json:"published"`
	Errors    []ResultStatus `json:"errors"`
}

// ResultStatus is one classified result set with its computed grade.
type ResultStatus struct {
	Set            models.ResultSet        `json:"set"`
	Student        *models.StudentSnapshot `json:"student,omitempty"`
	Classification results.Classification  `json:"classification"`
	Summary        results.Summary         `json:"summary"`
}

// Total is the number of result sets across all lists.
func (s *StatusSummary) Total() int {
	return len(s.Drafts) + len(s.Published) + len(s.Errors)
}

// StatusSummary returns the current readiness of every result set in key order.
func (p *Publisher) StatusSummary(ctx context.Context) (*StatusSummary, error) {
	entries, err := p.marks.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}

	summary := &StatusSummary{
		Drafts:    []ResultStatus{},
		Published: []ResultStatus{},
		Errors:    []ResultStatus{},
	}

	students := make(map[string]*models.StudentSnapshot)
	for _, set := range results.Group(entries) {
		id := set.Key.StudentID
		student, seen := students[id]
		if !seen {
			if student, err = p.resolve(ctx, id); err != nil {
				return nil, fmt.Errorf("failed to resolve student %s: %w", id, err)
			}
			students[id] = student
		}

		rs := ResultStatus{
			Set:            set,
			Student:        student,
			Classification: results.Classify(set, student),
			Summary:        results.CalculateSet(set),
		}

		switch rs.Classification.Status {
		case models.StatusPublished:
			summary.Published = append(summary.Published, rs)
		case models.StatusDraft:
			summary.Drafts = append(summary.Drafts, rs)
		default:
			summary.Errors = append(summary.Errors, rs)
		}
	}
	return summary, nil
}

// Preview renders a result set without dispatching or committing it.
func (p *Publisher) Preview(ctx context.Context, studentID, term string) ([]byte, error) {
	term = shared.NormalizeTerm(term)
	entries, err := p.marks.FindByStudentAndTerm(ctx, studentID, term)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no results for %s in %s", shared.ErrNotFound, studentID, term)
	}

	student, err := p.resolve(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fmt.Errorf("%w: student %s", shared.ErrOrphanedData, studentID)
	}

	set := results.Group(entries)[0]
	return p.render(student, set, results.CalculateSet(set))
}

// resolve looks up a student, mapping absence to a nil snapshot.
func (p *Publisher) resolve(ctx context.Context, id string) (*models.StudentSnapshot, error) {
	student, err := p.students.Resolve(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return student, err
}

func (p *Publisher) render(student *models.StudentSnapshot, set models.ResultSet, summary results.Summary) ([]byte, error) {
	defer p.timeStage(Render, time.Now())

	doc, err := p.renderer.Render(&formatter.Marksheet{
		Student:     student,
		Set:         set,
		Term:        set.Key.Term,
		Summary:     summary,
		GeneratedAt: p.clock.Now().UTC(),
	})
	if err != nil {
		if !errors.Is(err, shared.ErrRenderFailure) {
			err = fmt.Errorf("%w: %v", shared.ErrRenderFailure, err)
		}
		return nil, err
	}
	return doc, nil
}

func (p *Publisher) dispatch(ctx context.Context, student *models.StudentSnapshot, set models.ResultSet, doc []byte) error {
	defer p.timeStage(Dispatch, time.Now())

	return p.dispatcher.Send(ctx, models.Delivery{
		Address:     student.Email,
		StudentID:   student.ID,
		StudentName: student.Name,
		Term:        set.Key.Term,
		Filename:    formatter.MarksheetFilename(student.ID, set.Key.Term),
		Document:    doc,
	})
}

// commit marks the set published. It runs detached from ctx cancellation since the
// marksheet has already been sent.
func (p *Publisher) commit(ctx context.Context, set models.ResultSet) (int64, error) {
	defer p.timeStage(Commit, time.Now())
	return p.marks.MarkPublished(context.WithoutCancel(ctx), set.IDs())
}

func (p *Publisher) timeStage(phase Phase, start time.Time) {
	p.recorder.RecordStage(phase, time.Since(start))
}

// renderDetail strips the error kind prefix for report messages.
func renderDetail(err error) string {
	return strings.TrimPrefix(err.Error(), shared.ErrRenderFailure.Error()+": ")
}

func publishedMessage(student *models.StudentSnapshot, summary results.Summary) (models.ReportStatus, string) {
	msg := fmt.Sprintf(msgPublished, student.Email)
	if summary.HasFailed {
		return models.ReportWarning, msg + " " + fmt.Sprintf(msgBelowPass, summary.FailedSubjects, int(results.PassMark))
	}
	return models.ReportSuccess, msg
}
