package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkEntryValidate(t *testing.T) {
	valid := MarkEntry{StudentID: "s1", Subject: "Math", Term: "Term 1", Marks: 75}

	tc := []struct {
		name    string
		mutate  func(*MarkEntry)
		wantErr string
	}{
		{name: "valid", mutate: func(*MarkEntry) {}},
		{name: "boundary marks", mutate: func(m *MarkEntry) { m.Marks = 100; m.ProjectMarks = 0 }},
		{name: "missing student", mutate: func(m *MarkEntry) { m.StudentID = "" }, wantErr: "'StudentID' failed on the 'required' tag"},
		{name: "missing term", mutate: func(m *MarkEntry) { m.Term = "" }, wantErr: "'Term' failed on the 'required' tag"},
		{name: "marks above range", mutate: func(m *MarkEntry) { m.Marks = 100.5 }, wantErr: "'Marks' failed on the 'lte' tag"},
		{name: "negative project marks", mutate: func(m *MarkEntry) { m.ProjectMarks = -1 }, wantErr: "'ProjectMarks' failed on the 'gte' tag"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)

			err := m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStudentSnapshotValidate(t *testing.T) {
	s := StudentSnapshot{ID: "s1", Name: "Asha Rao"}
	assert.NoError(t, s.Validate(), "email is optional")
	assert.False(t, s.HasEmail())

	s.Email = "asha"
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "'Email' failed on the 'email' tag"))

	s.Email = "asha@example.com"
	assert.NoError(t, s.Validate())
	assert.True(t, s.HasEmail())

	var missing *StudentSnapshot
	assert.False(t, missing.HasEmail())
}

func TestResultSet(t *testing.T) {
	set := ResultSet{
		Key: ResultKey{StudentID: "s1", Term: "Term 1"},
		Entries: []MarkEntry{
			{ID: "a", Marks: 80, Published: true},
			{ID: "b", Marks: 65, ClassName: "10-B"},
		},
	}

	assert.Equal(t, []float64{80, 65}, set.Marks())
	assert.Equal(t, []string{"a", "b"}, set.IDs())
	assert.Equal(t, "10-B", set.ClassName())
	assert.False(t, set.AllPublished())

	set.Entries[1].Published = true
	assert.True(t, set.AllPublished())
}

func TestResultKeyLess(t *testing.T) {
	a := ResultKey{StudentID: "s1", Term: "Term 2"}
	b := ResultKey{StudentID: "s2", Term: "Term 1"}
	c := ResultKey{StudentID: "s1", Term: "Term 1"}

	assert.True(t, a.Less(b))
	assert.True(t, c.Less(a))
	assert.False(t, a.Less(a))

	groups := map[ResultKey]int{a: 1}
	groups[ResultKey{StudentID: "s1", Term: "Term 2"}]++
	assert.Equal(t, 2, groups[a], "keys are comparable values")
}

func TestBatchReportAdd(t *testing.T) {
	var r BatchReport
	r.Add(BatchReportEntry{Status: ReportSuccess})
	r.Add(BatchReportEntry{Status: ReportWarning})
	r.Add(BatchReportEntry{Status: ReportError})
	r.Add(BatchReportEntry{Status: ReportError})

	assert.Len(t, r.Entries, 4)
	assert.Equal(t, 1, r.Succeeded)
	assert.Equal(t, 1, r.Warned)
	assert.Equal(t, 2, r.Failed)
	assert.Zero(t, r.Duration())
}
