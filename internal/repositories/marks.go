package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
)

const markColumns = `id, student_id, subject, marks, project_marks, grade, term, class_name,
	published, published_at, created_at, updated_at`

// MarkRepository persists [models.MarkEntry] rows.
type MarkRepository struct {
	db    *shared.Database
	clock shared.Clock
}

// NewMarkRepository creates a new [MarkRepository] with the given database connection
func NewMarkRepository(db *shared.Database) *MarkRepository {
	return &MarkRepository{db: db}
}

// WithClock overrides the time source used for timestamps.
func (r *MarkRepository) WithClock(c shared.Clock) *MarkRepository {
	r.clock = c
	return r
}

// Upsert inserts an entry or updates the existing one for the same (student, subject, term).
// The publish flag is left alone on update. The stored id is written back to entry.
func (r *MarkRepository) Upsert(ctx context.Context, entry *models.MarkEntry) error {
	entry.Term = shared.NormalizeTerm(entry.Term)
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	now := r.clock.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO marks (id, student_id, subject, marks, project_marks, grade, term, class_name, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)
		ON CONFLICT (student_id, subject, term) DO UPDATE SET
			marks = excluded.marks,
			project_marks = excluded.project_marks,
			grade = excluded.grade,
			class_name = excluded.class_name,
			updated_at = excluded.updated_at
		RETURNING id, published
	`)

	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.StudentID, entry.Subject, entry.Marks, entry.ProjectMarks,
		entry.Grade, entry.Term, entry.ClassName, entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.ID, &entry.Published)
	if err != nil {
		return fmt.Errorf("failed to upsert mark entry: %w", err)
	}

	return nil
}

// Get retrieves a mark entry by ID
func (r *MarkRepository) Get(ctx context.Context, id string) (*models.MarkEntry, error) {
	query := r.db.Rebind("SELECT " + markColumns + " FROM marks WHERE id = ?")

	entry, err := scanMark(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: mark entry %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mark entry: %w", err)
	}
	return entry, nil
}

// FindUnpublished returns every entry not yet published.
func (r *MarkRepository) FindUnpublished(ctx context.Context) ([]models.MarkEntry, error) {
	return r.list(ctx, "WHERE published = FALSE")
}

// FindAll returns every entry regardless of publish state.
func (r *MarkRepository) FindAll(ctx context.Context) ([]models.MarkEntry, error) {
	return r.list(ctx, "")
}

// FindByStudentAndTerm returns every entry of one student in one term, published or not.
func (r *MarkRepository) FindByStudentAndTerm(ctx context.Context, studentID, term string) ([]models.MarkEntry, error) {
	return r.list(ctx, "WHERE student_id = ? AND term = ?", studentID, shared.NormalizeTerm(term))
}

// MarkPublished flips the given entries to published in a single conditional update.
// Entries already published are skipped; the number of rows changed is returned.
// Either every listed unpublished entry is committed or none is.
func (r *MarkRepository) MarkPublished(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	now := r.clock.Now().UTC()
	query := r.db.Rebind(fmt.Sprintf(`
		UPDATE marks SET published = TRUE, published_at = ?, updated_at = ?
		WHERE published = FALSE AND id IN (%s)
	`, shared.Placeholders(len(ids))))
	args := append([]any{now, now}, stringArgs(ids)...)

	var affected int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to mark entries published: %w", err)
		}

		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

func (r *MarkRepository) list(ctx context.Context, where string, args ...any) ([]models.MarkEntry, error) {
	query := r.db.Rebind("SELECT " + markColumns + " FROM marks " + where + " ORDER BY student_id, term, subject, id")

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mark entries: %w", err)
	}
	defer rows.Close()

	var entries []models.MarkEntry
	for rows.Next() {
		entry, err := scanMark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mark entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

func scanMark(s scanner) (*models.MarkEntry, error) {
	var (
		entry       models.MarkEntry
		publishedAt sql.NullTime
	)

	err := s.Scan(
		&entry.ID, &entry.StudentID, &entry.Subject, &entry.Marks, &entry.ProjectMarks,
		&entry.Grade, &entry.Term, &entry.ClassName, &entry.Published, &publishedAt,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		t := publishedAt.Time
		entry.PublishedAt = &t
	}
	return &entry, nil
}
