package results

import (
	"testing"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tc := []struct {
		name  string
		marks []float64
		want  Summary
	}{
		{
			name:  "three subjects",
			marks: []float64{85, 78, 92},
			want:  Summary{SubjectCount: 3, TotalMarks: 255, FullMarks: 300, Percentage: 85.00, Grade: "A+"},
		},
		{
			name:  "best of five",
			marks: []float64{85, 78, 92, 88, 60, 55, 40},
			want:  Summary{SubjectCount: 5, TotalMarks: 403, FullMarks: 500, Percentage: 80.60, Grade: "A+"},
		},
		{
			name:  "exactly five",
			marks: []float64{90, 90, 90, 90, 90},
			want:  Summary{SubjectCount: 5, TotalMarks: 450, FullMarks: 500, Percentage: 90, Grade: "AA"},
		},
		{
			name:  "no entries",
			marks: nil,
			want:  Summary{Grade: "D"},
		},
		{
			name:  "failure counted outside best of five",
			marks: []float64{95, 94, 93, 92, 91, 12},
			want:  Summary{SubjectCount: 5, TotalMarks: 465, FullMarks: 500, Percentage: 93, Grade: "AA", HasFailed: true, FailedSubjects: 1},
		},
		{
			name:  "rounding to two places",
			marks: []float64{66.667, 66.667, 66.666},
			want:  Summary{SubjectCount: 3, TotalMarks: 200, FullMarks: 300, Percentage: 66.67, Grade: "A"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.marks)
			assert.Equal(t, tt.want.SubjectCount, got.SubjectCount)
			assert.InDelta(t, tt.want.TotalMarks, got.TotalMarks, 1e-9)
			assert.Equal(t, tt.want.FullMarks, got.FullMarks)
			assert.Equal(t, tt.want.Percentage, got.Percentage)
			assert.Equal(t, tt.want.Grade, got.Grade)
			assert.Equal(t, tt.want.HasFailed, got.HasFailed)
			assert.Equal(t, tt.want.FailedSubjects, got.FailedSubjects)
		})
	}
}

func TestCalculateDoesNotMutate(t *testing.T) {
	marks := []float64{40, 90, 10, 75, 60, 55}
	before := append([]float64(nil), marks...)
	Calculate(marks)
	assert.Equal(t, before, marks)
}

func TestHasFailed(t *testing.T) {
	tc := []struct {
		name  string
		marks []float64
		want  bool
	}{
		{name: "all passing", marks: []float64{30, 45, 99}, want: false},
		{name: "one below pass", marks: []float64{29.99, 80, 90}, want: true},
		{name: "high percentage still failed", marks: []float64{100, 100, 100, 100, 100, 0}, want: true},
		{name: "low percentage not failed", marks: []float64{30, 30, 30}, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.marks).HasFailed)
		})
	}
}

func TestGradeFor(t *testing.T) {
	tc := []struct {
		pct  float64
		want string
	}{
		{100, "AA"}, {90, "AA"}, {89.99, "A+"}, {80, "A+"}, {79.99, "A"}, {60, "A"},
		{59.99, "B+"}, {50, "B+"}, {49.99, "B"}, {40, "B"}, {39.99, "C"}, {30, "C"},
		{29.99, "D"}, {0, "D"},
	}

	for _, tt := range tc {
		assert.Equal(t, tt.want, GradeFor(tt.pct), "percentage %.2f", tt.pct)
	}
}

func TestCalculateSet(t *testing.T) {
	set := models.ResultSet{Entries: []models.MarkEntry{{Marks: 85}, {Marks: 78}, {Marks: 92}}}
	assert.Equal(t, Calculate([]float64{85, 78, 92}), CalculateSet(set))
}
