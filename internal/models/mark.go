package models

import (
	"time"
)

// MarkEntry is one subject's marks for one student in one term.
//
// At most one entry exists per (StudentID, Subject, Term). Published flips to true
// only when the entry's result set has been delivered.
type MarkEntry struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"student_id" validate:"required"`
	Subject      string     `json:"subject" validate:"required"`
	Marks        float64    `json:"marks" validate:"gte=0,lte=100"`
	ProjectMarks float64    `json:"project_marks" validate:"gte=0,lte=100"`
	Grade        string     `json:"grade,omitempty"`
	Term         string     `json:"term" validate:"required"`
	ClassName    string     `json:"class_name,omitempty"`
	Published    bool       `json:"published"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (m *MarkEntry) Validate() error { return validateStruct(m) }

// Key returns the entry's grouping key.
func (m MarkEntry) Key() ResultKey {
	return ResultKey{StudentID: m.StudentID, Term: m.Term}
}

// ResultKey identifies one student's results for one term.
type ResultKey struct {
	StudentID string `json:"student_id"`
	Term      string `json:"term"`
}

// Less orders keys by student, then term.
func (k ResultKey) Less(o ResultKey) bool {
	if k.StudentID != o.StudentID {
		return k.StudentID < o.StudentID
	}
	return k.Term < o.Term
}

func (k ResultKey) String() string {
	return k.StudentID + " / " + k.Term
}

// ResultSet is every [MarkEntry] sharing a [ResultKey]. It is never empty.
type ResultSet struct {
	Key     ResultKey   `json:"key"`
	Entries []MarkEntry `json:"entries"`
}

// Marks returns the subject marks in entry order.
func (s ResultSet) Marks() []float64 {
	marks := make([]float64, len(s.Entries))
	for i, e := range s.Entries {
		marks[i] = e.Marks
	}
	return marks
}

// IDs returns the entry ids in entry order.
func (s ResultSet) IDs() []string {
	ids := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		ids[i] = e.ID
	}
	return ids
}

// AllPublished reports whether every entry is published.
func (s ResultSet) AllPublished() bool {
	for _, e := range s.Entries {
		if !e.Published {
			return false
		}
	}
	return true
}

// ClassName returns the first non-empty class name among the entries.
func (s ResultSet) ClassName() string {
	for _, e := range s.Entries {
		if e.ClassName != "" {
			return e.ClassName
		}
	}
	return ""
}
