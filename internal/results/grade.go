package results

import (
	"math"
	"sort"

	"github.com/desertthunder/marksheet/internal/models"
)

const (
	// BestOf caps how many subjects count towards the total.
	BestOf = 5
	// PassMark is the lowest mark that is not a failure.
	PassMark = 30.0
	// SubjectFullMarks is the maximum mark of one subject.
	SubjectFullMarks = 100.0
)

// gradeBands are checked top down against the rounded percentage.
var gradeBands = []struct {
	min   float64
	grade string
}{
	{90, "AA"},
	{80, "A+"},
	{60, "A"},
	{50, "B+"},
	{40, "B"},
	{30, "C"},
}

// FailingGrade is awarded below the lowest band.
const FailingGrade = "D"

// Summary is the best-of-5 result of a set of subject marks.
type Summary struct {
	SubjectCount   int     `json:"subject_count"`
	TotalMarks     float64 `json:"total_marks"`
	FullMarks      float64 `json:"full_marks"`
	Percentage     float64 `json:"percentage"`
	Grade          string  `json:"grade"`
	HasFailed      bool    `json:"has_failed"`
	FailedSubjects int     `json:"failed_subjects"`
}

// Calculate summarizes marks: the top five (or all, when fewer) count towards the
// total, the percentage is rounded to two decimals and graded, and any mark below
// [PassMark] anywhere in the input marks the result as failed. marks is not modified.
func Calculate(marks []float64) Summary {
	sorted := make([]float64, len(marks))
	copy(sorted, marks)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	s := Summary{SubjectCount: min(len(sorted), BestOf)}
	for _, m := range sorted[:s.SubjectCount] {
		s.TotalMarks += m
	}
	s.FullMarks = float64(s.SubjectCount) * SubjectFullMarks

	if s.FullMarks > 0 {
		s.Percentage = Round2(s.TotalMarks / s.FullMarks * 100)
	}
	s.Grade = GradeFor(s.Percentage)

	for _, m := range marks {
		if m < PassMark {
			s.FailedSubjects++
		}
	}
	s.HasFailed = s.FailedSubjects > 0

	return s
}

// CalculateSet summarizes the marks of a result set.
func CalculateSet(set models.ResultSet) Summary {
	return Calculate(set.Marks())
}

// GradeFor maps a percentage to its letter grade.
func GradeFor(percentage float64) string {
	for _, b := range gradeBands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return FailingGrade
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
