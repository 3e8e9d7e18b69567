package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/marksheet/internal/formatter"
	"github.com/desertthunder/marksheet/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PublishBatch publishes every unpublished result set, streaming progress unless --json is set.
func (r *Runner) PublishBatch(ctx context.Context, cmd *cli.Command) error {
	publisher, err := r.openPublisher()
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")

	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if asJSON {
		close(done)
	} else {
		progressCh = make(chan tasks.ProgressUpdate, 50)
		go func() {
			defer close(done)
			for update := range progressCh {
				switch update.Phase {
				case tasks.FetchResults:
					r.writePlain("📥 %s\n", update.Message)
				case tasks.Complete:
					r.writePlain("   %s\n", update.Message)
				}
			}
		}()
	}

	report, err := publisher.PublishBatch(ctx, progressCh)
	if progressCh != nil {
		close(progressCh)
	}
	<-done

	if err != nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		written, err := formatter.WriteCSVReport(report, path)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", written)
	}

	if asJSON {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	if cmd.Bool("plain") {
		text, err := formatter.ExportReportToText(report)
		if err != nil {
			return err
		}
		return r.writePlain("%s", text)
	}

	r.writePlainHeader("Publication Report")
	r.writePlain("%s\n", reportTable(report))
	r.writePlain("Succeeded: %d  Warnings: %d  Failed: %d  (%s)\n",
		report.Succeeded, report.Warned, report.Failed, report.Duration().Round(time.Millisecond))
	return nil
}

// PublishOne publishes one student's result set for a term.
func (r *Runner) PublishOne(ctx context.Context, cmd *cli.Command) error {
	publisher, err := r.openPublisher()
	if err != nil {
		return err
	}

	outcome, err := publisher.PublishOne(ctx, cmd.String("student"), cmd.String("term"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(outcome, true)
	}

	r.writePlain("%s %s\n", statusMark(string(outcome.Status)), outcome.Message)
	r.writePlain("  Student: %s (%s)\n", outcome.StudentName, outcome.StudentID)
	r.writePlain("  Term: %s\n", outcome.Term)
	r.writePlain("  Result: %.2f%% (%s)\n", outcome.Percentage, outcome.Grade)
	r.writePlain("  Entries updated: %d\n", outcome.EntriesUpdated)
	return nil
}

// Status prints every result set grouped by readiness.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	publisher, err := r.openPublisher()
	if err != nil {
		return err
	}

	summary, err := publisher.StatusSummary(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}

	if summary.Total() == 0 {
		r.writePlain("No results found. Import marks with 'marksheet marks import --file marks.csv'.\n")
		return nil
	}

	r.writePlain("%s\n", statusTable(summary))
	r.writePlain("Drafts: %d  Published: %d  Errors: %d\n",
		len(summary.Drafts), len(summary.Published), len(summary.Errors))
	return nil
}

// Render writes a marksheet preview to disk without dispatching or committing it.
func (r *Runner) Render(ctx context.Context, cmd *cli.Command) error {
	publisher, err := r.openPublisher()
	if err != nil {
		return err
	}

	studentID, term := cmd.String("student"), cmd.String("term")
	doc, err := publisher.Preview(ctx, studentID, term)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		path = formatter.MarksheetFilename(studentID, term)
	}

	if err := os.WriteFile(path, doc, 0644); err != nil {
		return fmt.Errorf("failed to write marksheet: %w", err)
	}

	r.logger.Info("marksheet rendered", "student_id", studentID, "term", term, "path", path, "size", len(doc))
	r.writePlain("✓ Marksheet written to %s (%d bytes)\n", path, len(doc))
	return nil
}
