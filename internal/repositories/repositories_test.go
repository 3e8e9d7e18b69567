package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *shared.Database {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func fixedClock() shared.Clock {
	return func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
}

func seedMarks(t *testing.T, repo *MarkRepository, entries ...models.MarkEntry) []models.MarkEntry {
	t.Helper()
	ctx := context.Background()
	for i := range entries {
		if err := repo.Upsert(ctx, &entries[i]); err != nil {
			t.Fatalf("failed to seed mark entry: %v", err)
		}
	}
	return entries
}

func TestMarkRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMarkRepository(db).WithClock(fixedClock())
		entry := models.MarkEntry{StudentID: "s1", Subject: "Math", Marks: 88, Grade: "A", Term: " Term  1 ", ClassName: "10-A"}

		if err := repo.Upsert(ctx, &entry); err != nil {
			t.Fatalf("failed to upsert mark entry: %v", err)
		}

		if entry.ID == "" {
			t.Fatal("entry ID should be set after upsert")
		}

		got, err := repo.Get(ctx, entry.ID)
		if err != nil {
			t.Fatalf("failed to get mark entry: %v", err)
		}

		if got.Term != "Term 1" {
			t.Errorf("expected normalized term 'Term 1', got %q", got.Term)
		}

		if got.Marks != 88 || got.Subject != "Math" || got.ClassName != "10-A" {
			t.Errorf("unexpected entry %+v", got)
		}

		if got.Published || got.PublishedAt != nil {
			t.Error("new entry should be unpublished")
		}
	})

	t.Run("Upsert Updates Existing Triple", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMarkRepository(db)
		first := seedMarks(t, repo, models.MarkEntry{StudentID: "s1", Subject: "Math", Marks: 50, Term: "Term 1"})[0]

		second := models.MarkEntry{StudentID: "s1", Subject: "Math", Marks: 75, Term: "Term 1"}
		if err := repo.Upsert(ctx, &second); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		if second.ID != first.ID {
			t.Errorf("expected upsert to keep id %s, got %s", first.ID, second.ID)
		}

		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(all))
		}
		if all[0].Marks != 75 {
			t.Errorf("expected marks 75, got %v", all[0].Marks)
		}
	})

	t.Run("FindUnpublished", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMarkRepository(db)
		entries := seedMarks(t, repo,
			models.MarkEntry{StudentID: "s1", Subject: "Math", Marks: 50, Term: "Term 1"},
			models.MarkEntry{StudentID: "s1", Subject: "Science", Marks: 60, Term: "Term 1"},
			models.MarkEntry{StudentID: "s2", Subject: "Math", Marks: 70, Term: "Term 1"},
		)

		if _, err := repo.MarkPublished(ctx, []string{entries[2].ID}); err != nil {
			t.Fatalf("failed to mark published: %v", err)
		}

		unpublished, err := repo.FindUnpublished(ctx)
		if err != nil {
			t.Fatalf("failed to find unpublished: %v", err)
		}
		if len(unpublished) != 2 {
			t.Fatalf("expected 2 unpublished entries, got %d", len(unpublished))
		}
		for _, e := range unpublished {
			if e.StudentID != "s1" {
				t.Errorf("unexpected unpublished entry for %s", e.StudentID)
			}
		}
	})

	t.Run("FindByStudentAndTerm", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMarkRepository(db)
		entries := seedMarks(t, repo,
			models.MarkEntry{StudentID: "s1", Subject: "Science", Marks: 60, Term: "Term 1"},
			models.MarkEntry{StudentID: "s1", Subject: "Math", Marks: 50, Term: "Term 1"},
			models.MarkEntry{StudentID: "s1", Subject: "Math", Marks: 70, Term: "Term 2"},
		)

		if _, err := repo.MarkPublished(ctx, []string{entries[0].ID}); err != nil {
			t.Fatalf("failed to mark published: %v", err)
		}

		got, err := repo.FindByStudentAndTerm(ctx, "s1", "Term 1")
		if err != nil {
			t.Fatalf("failed to find entries: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 entries including published ones, got %d", len(got))
		}
		if got[0].Subject != "Math" || got[1].Subject != "Science" {
			t.Errorf("expected entries ordered by subject, got %s, %s", got[0].Subject, got[1].Subject)
		}

		none, err := repo.FindByStudentAndTerm(ctx, "s1", "Term 9")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no entries, got %d", len(none))
		}
	})

	t.Run("MarkPublished", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMarkRepository(db).WithClock(fixedClock())
		entries := seedMarks(t, repo,
			models.MarkEntry{StudentID: "s1", Subject: "Math", Marks: 50, Term: "Term 1"},
			models.MarkEntry{StudentID: "s1", Subject: "Science", Marks: 60, Term: "Term 1"},
		)
		ids := []string{entries[0].ID, entries[1].ID}

		n, err := repo.MarkPublished(ctx, ids)
		if err != nil {
			t.Fatalf("failed to mark published: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 rows updated, got %d", n)
		}

		got, err := repo.Get(ctx, entries[0].ID)
		if err != nil {
			t.Fatalf("failed to get entry: %v", err)
		}
		if !got.Published {
			t.Error("entry should be published")
		}
		if got.PublishedAt == nil || !got.PublishedAt.Equal(fixedClock()()) {
			t.Errorf("expected published_at %v, got %v", fixedClock()(), got.PublishedAt)
		}

		n, err = repo.MarkPublished(ctx, ids)
		if err != nil {
			t.Fatalf("second commit failed: %v", err)
		}
		if n != 0 {
			t.Errorf("second commit should be a no-op, updated %d rows", n)
		}
	})

	t.Run("MarkPublished Empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		n, err := NewMarkRepository(db).MarkPublished(ctx, nil)
		if err != nil || n != 0 {
			t.Errorf("expected no-op, got %d, %v", n, err)
		}
	})
}

func TestStudentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert & Resolve", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewStudentRepository(db)
		s := &models.StudentSnapshot{ID: "s1", Name: "Asha Rao", ClassName: "10-A", RollNumber: "12", Email: "asha@example.com"}

		if err := repo.Upsert(ctx, s); err != nil {
			t.Fatalf("failed to upsert student: %v", err)
		}

		got, err := repo.Resolve(ctx, "s1")
		if err != nil {
			t.Fatalf("failed to resolve student: %v", err)
		}
		if *got != *s {
			t.Errorf("expected %+v, got %+v", s, got)
		}

		s.Blocked = true
		s.BlockReason = "fees outstanding"
		if err := repo.Upsert(ctx, s); err != nil {
			t.Fatalf("failed to update student: %v", err)
		}

		got, err = repo.Resolve(ctx, "s1")
		if err != nil {
			t.Fatalf("failed to resolve student: %v", err)
		}
		if !got.Blocked || got.BlockReason != "fees outstanding" {
			t.Errorf("expected blocked student, got %+v", got)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewStudentRepository(db)
		for _, s := range []models.StudentSnapshot{
			{ID: "s2", Name: "Ben", ClassName: "10-B", RollNumber: "1"},
			{ID: "s1", Name: "Asha", ClassName: "10-A", RollNumber: "2"},
		} {
			if err := repo.Upsert(ctx, &s); err != nil {
				t.Fatalf("failed to upsert student: %v", err)
			}
		}

		students, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list students: %v", err)
		}
		if len(students) != 2 || students[0].ID != "s1" {
			t.Errorf("expected students ordered by class, got %+v", students)
		}
	})
}
