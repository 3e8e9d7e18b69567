package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/marksheet/internal/formatter"
	"github.com/urfave/cli/v3"
)

// ImportMarks upserts mark entries from a CSV file. Re-importing a file updates marks
// in place and never resets the publish flag.
func (r *Runner) ImportMarks(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := formatter.ParseMarksCSV(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := r.openStores(); err != nil {
		return err
	}

	for i := range entries {
		if err := r.marks.Upsert(ctx, &entries[i]); err != nil {
			return fmt.Errorf("line %d (%s, %s): %w", i+2, entries[i].StudentID, entries[i].Subject, err)
		}
	}

	r.logger.Info("marks imported", "file", path, "count", len(entries))
	r.writePlain("✓ Imported %d mark entries from %s\n", len(entries), path)
	return nil
}

// ImportStudents upserts student snapshots from a CSV file.
func (r *Runner) ImportStudents(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	students, err := formatter.ParseStudentsCSV(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := r.openStores(); err != nil {
		return err
	}

	for i := range students {
		if err := r.students.Upsert(ctx, &students[i]); err != nil {
			return fmt.Errorf("line %d (%s): %w", i+2, students[i].ID, err)
		}
	}

	r.logger.Info("students imported", "file", path, "count", len(students))
	r.writePlain("✓ Imported %d students from %s\n", len(students), path)
	return nil
}

// ListStudents prints every stored student.
func (r *Runner) ListStudents(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(); err != nil {
		return err
	}

	students, err := r.students.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(students, true)
	}

	for _, s := range students {
		email := s.Email
		if email == "" {
			email = "(no email)"
		}
		blocked := ""
		if s.Blocked {
			blocked = "  [blocked]"
		}
		r.writePlain("%-10s %-24s %-8s %s%s\n", s.ID, s.Name, s.ClassName, email, blocked)
	}
	r.writePlain("%d student(s)\n", len(students))
	return nil
}
