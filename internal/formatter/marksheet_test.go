package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/results"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func sampleMarksheet() *Marksheet {
	set := models.ResultSet{
		Key: models.ResultKey{StudentID: "s1", Term: "Term 1"},
		Entries: []models.MarkEntry{
			{ID: "a", StudentID: "s1", Subject: "Mathematics", Marks: 85, Grade: "A+", Term: "Term 1"},
			{ID: "b", StudentID: "s1", Subject: "Science", Marks: 78, Grade: "A", Term: "Term 1"},
			{ID: "c", StudentID: "s1", Subject: "English", Marks: 92.5, Grade: "AA", Term: "Term 1"},
		},
	}
	return &Marksheet{
		Student:     &models.StudentSnapshot{ID: "s1", Name: "Zoë Müller", ClassName: "10-A", RollNumber: "12", Email: "zoe@example.com"},
		Set:         set,
		Term:        "Term 1",
		Summary:     results.CalculateSet(set),
		GeneratedAt: generatedAt,
	}
}

func testRenderer() *MarksheetRenderer {
	return NewMarksheetRenderer(shared.SchoolConfig{
		Name:    "Springfield Secondary School",
		Address: "742 Evergreen Terrace",
		Contact: "office@springfield.example",
	})
}

func TestMarksheetRenderer(t *testing.T) {
	t.Run("produces a single page pdf", func(t *testing.T) {
		data, err := testRenderer().Render(sampleMarksheet())
		require.NoError(t, err)

		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
		assert.Contains(t, string(data), "/Count 1")
		assert.True(t, bytes.HasSuffix(bytes.TrimSpace(data), []byte("%%EOF")))
	})

	t.Run("prints every section", func(t *testing.T) {
		r := testRenderer()
		r.Compress = false

		data, err := r.Render(sampleMarksheet())
		require.NoError(t, err)

		for _, want := range []string{
			"Springfield Secondary School",
			"Statement of Marks",
			"Mathematics", "92.50", "AA",
			"255.50 / 300",
			"85.17%",
			"Class Teacher", "Principal",
			"Generated on 2025-06-01 09:30 UTC",
		} {
			assert.Contains(t, string(data), want)
		}
	})

	t.Run("byte identical for identical input", func(t *testing.T) {
		r := testRenderer()
		first, err := r.Render(sampleMarksheet())
		require.NoError(t, err)

		second, err := r.Render(sampleMarksheet())
		require.NoError(t, err)

		assert.True(t, bytes.Equal(first, second), "repeated renders differ")
	})

	t.Run("generation time changes output", func(t *testing.T) {
		r := testRenderer()
		first, err := r.Render(sampleMarksheet())
		require.NoError(t, err)

		later := sampleMarksheet()
		later.GeneratedAt = generatedAt.Add(24 * time.Hour)
		second, err := r.Render(later)
		require.NoError(t, err)

		assert.False(t, bytes.Equal(first, second))
	})

	t.Run("fits a long subject list on one page", func(t *testing.T) {
		m := sampleMarksheet()
		m.Set.Entries = nil
		for i := 1; i <= 20; i++ {
			m.Set.Entries = append(m.Set.Entries, models.MarkEntry{
				ID: fmt.Sprint(i), StudentID: "s1", Subject: fmt.Sprintf("Subject %02d", i), Marks: 70, Grade: "A", Term: "Term 1",
			})
		}
		m.Summary = results.CalculateSet(m.Set)

		r := testRenderer()
		r.Compress = false
		data, err := r.Render(m)
		require.NoError(t, err)
		assert.Contains(t, string(data), "/Count 1")
		assert.Contains(t, string(data), "Subject 20")
	})

	t.Run("does not mutate input", func(t *testing.T) {
		m := sampleMarksheet()
		before := sampleMarksheet()

		_, err := testRenderer().Render(m)
		require.NoError(t, err)
		assert.True(t, reflect.DeepEqual(before, m))
	})
}

func TestMarksheetRendererErrors(t *testing.T) {
	tc := []struct {
		name   string
		mutate func(*Marksheet) *Marksheet
	}{
		{name: "nil marksheet", mutate: func(*Marksheet) *Marksheet { return nil }},
		{name: "nil student", mutate: func(m *Marksheet) *Marksheet { m.Student = nil; return m }},
		{name: "empty term", mutate: func(m *Marksheet) *Marksheet { m.Term = " "; return m }},
		{name: "no entries", mutate: func(m *Marksheet) *Marksheet { m.Set.Entries = nil; return m }},
		{name: "marks out of range", mutate: func(m *Marksheet) *Marksheet { m.Set.Entries[0].Marks = 101; return m }},
		{name: "zero generation time", mutate: func(m *Marksheet) *Marksheet { m.GeneratedAt = time.Time{}; return m }},
		{name: "student name outside the font", mutate: func(m *Marksheet) *Marksheet {
			m.Student.Name = "স্বপ্নদীপ ঘোষ"
			return m
		}},
		{name: "subject outside the font", mutate: func(m *Marksheet) *Marksheet {
			m.Set.Entries[1].Subject = "বাংলা"
			return m
		}},
		{name: "too many subjects", mutate: func(m *Marksheet) *Marksheet {
			for len(m.Set.Entries) <= MaxSubjects {
				m.Set.Entries = append(m.Set.Entries, m.Set.Entries[0])
			}
			return m
		}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			data, err := testRenderer().Render(tt.mutate(sampleMarksheet()))
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrRenderFailure))
			assert.Nil(t, data)
		})
	}

	t.Run("school header outside the font", func(t *testing.T) {
		r := testRenderer()
		r.School.Name = "শান্তিনিকেতন বিদ্যালয়"
		data, err := r.Render(sampleMarksheet())
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrRenderFailure))
		assert.Contains(t, err.Error(), "school name")
		assert.Nil(t, data)
	})
}

func TestFormatMarks(t *testing.T) {
	assert.Equal(t, "85", FormatMarks(85))
	assert.Equal(t, "72.50", FormatMarks(72.5))
	assert.Equal(t, "0", FormatMarks(0))
}

func TestMarksheetFilename(t *testing.T) {
	assert.Equal(t, "marksheet_s-104_Term_1.pdf", MarksheetFilename("s-104", "Term 1"))
	assert.Equal(t, "marksheet_a_b_2024_25.pdf", MarksheetFilename("a/b", "2024/25"))
}
