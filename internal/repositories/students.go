package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
)

const studentColumns = "id, name, class_name, roll_number, email, blocked, block_reason"

// StudentRepository persists [models.StudentSnapshot] rows.
type StudentRepository struct {
	db    *shared.Database
	clock shared.Clock
}

// NewStudentRepository creates a new [StudentRepository] with the given database connection
func NewStudentRepository(db *shared.Database) *StudentRepository {
	return &StudentRepository{db: db}
}

// Upsert inserts a student or replaces the stored fields of an existing one.
func (r *StudentRepository) Upsert(ctx context.Context, s *models.StudentSnapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := r.clock.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO students (id, name, class_name, roll_number, email, blocked, block_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			class_name = excluded.class_name,
			roll_number = excluded.roll_number,
			email = excluded.email,
			blocked = excluded.blocked,
			block_reason = excluded.block_reason,
			updated_at = excluded.updated_at
	`)

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.ClassName, s.RollNumber, s.Email, s.Blocked, s.BlockReason, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert student: %w", err)
	}
	return nil
}

// Resolve looks up a student by id. A missing student is reported as [shared.ErrNotFound].
func (r *StudentRepository) Resolve(ctx context.Context, id string) (*models.StudentSnapshot, error) {
	query := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE id = ?")

	s, err := scanStudent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: student %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return s, nil
}

// List returns every student ordered by class, roll number and id.
func (r *StudentRepository) List(ctx context.Context) ([]models.StudentSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+studentColumns+" FROM students ORDER BY class_name, roll_number, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.StudentSnapshot
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return students, nil
}

func scanStudent(s scanner) (*models.StudentSnapshot, error) {
	var st models.StudentSnapshot
	if err := s.Scan(&st.ID, &st.Name, &st.ClassName, &st.RollNumber, &st.Email, &st.Blocked, &st.BlockReason); err != nil {
		return nil, err
	}
	return &st, nil
}
