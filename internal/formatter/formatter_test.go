package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
	th "github.com/desertthunder/marksheet/internal/testing"
)

func sampleReport() *models.BatchReport {
	r := &models.BatchReport{RunID: "run-1"}
	r.Add(models.BatchReportEntry{StudentID: "s1", StudentName: "Asha Rao", Term: "Term 1", Status: models.ReportSuccess, Message: "Result published and emailed to asha@example.com."})
	r.Add(models.BatchReportEntry{StudentID: "s2", StudentName: "Ben, Jr.", Term: "Term 1", Status: models.ReportError, Message: "Email sending failed."})
	return r
}

func TestReportExporters(t *testing.T) {
	t.Run("ExportReportToCSV", func(t *testing.T) {
		data, err := ExportReportToCSV(sampleReport())
		if err != nil {
			t.Fatalf("ExportReportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.HasPrefix(output, "Student ID,Student Name,Term,Status,Message\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}

		if !strings.Contains(output, "s1,Asha Rao,Term 1,SUCCESS,") {
			t.Errorf("CSV missing success row, got: %s", output)
		}

		if !strings.Contains(output, `"Ben, Jr."`) {
			t.Errorf("CSV should quote names containing commas, got: %s", output)
		}
	})

	t.Run("ExportReportToText", func(t *testing.T) {
		data, err := ExportReportToText(sampleReport())
		if err != nil {
			t.Fatalf("ExportReportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"Run: run-1", "Succeeded: 1  Warnings: 0  Failed: 1", "2. [ERROR] Ben, Jr. (s2, Term 1): Email sending failed."} {
			if !strings.Contains(output, want) {
				t.Errorf("text report missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("WriteCSVReport", func(t *testing.T) {
		t.Run("explicit path", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.csv")

			got, err := WriteCSVReport(sampleReport(), path)
			if err != nil {
				t.Fatalf("WriteCSVReport failed: %v", err)
			}
			if got != path {
				t.Errorf("expected path %s, got %s", path, got)
			}

			th.AssertFileExists(t, path)
			if content := th.MustReadFile(t, path); !strings.Contains(content, "Asha Rao") {
				t.Errorf("report file missing rows: %s", content)
			}
		})

		t.Run("default path", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			got, err := WriteCSVReport(sampleReport(), "")
			if err != nil {
				t.Fatalf("WriteCSVReport failed: %v", err)
			}
			if got != "report_run-1.csv" {
				t.Errorf("expected default filename, got %s", got)
			}
			th.AssertFileExists(t, filepath.Join(tempDir, got))
		})
	})
}

func TestParseMarksCSV(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		input := `student_id,subject,marks,project_marks,grade,term,class_name
s1,Math,88,10,A,Term  1,10-A
s1,Science,72.5,,B+,Term 1,10-A
`
		entries, err := ParseMarksCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseMarksCSV failed: %v", err)
		}

		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}

		first := entries[0]
		if first.StudentID != "s1" || first.Subject != "Math" || first.Marks != 88 || first.ProjectMarks != 10 {
			t.Errorf("unexpected first entry: %+v", first)
		}
		if first.Term != "Term 1" {
			t.Errorf("expected normalized term, got %q", first.Term)
		}
		if entries[1].Marks != 72.5 || entries[1].ProjectMarks != 0 {
			t.Errorf("unexpected second entry: %+v", entries[1])
		}
	})

	t.Run("header order and case do not matter", func(t *testing.T) {
		input := "Term,Marks,Subject,Student_ID\nTerm 2,55,Art,s9\n"
		entries, err := ParseMarksCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseMarksCSV failed: %v", err)
		}
		if entries[0].StudentID != "s9" || entries[0].Subject != "Art" || entries[0].Term != "Term 2" {
			t.Errorf("unexpected entry: %+v", entries[0])
		}
	})

	tc := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "no header row"},
		{name: "missing column", input: "student_id,subject,marks\ns1,Math,20\n", wantErr: `missing column "term"`},
		{name: "bad number", input: "student_id,subject,marks,term\ns1,Math,abc,Term 1\n", wantErr: `line 2: marks "abc" is not a number`},
		{name: "ragged rows", input: "student_id,subject,marks,term\ns1,Math\n", wantErr: "malformed CSV"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarksCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseStudentsCSV(t *testing.T) {
	input := `id,name,class_name,roll_number,email,blocked,block_reason
s1,Asha Rao,10-A,12,asha@example.com,false,
s2,Ben Okafor,10-A,13,,true,fees outstanding
`
	students, err := ParseStudentsCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseStudentsCSV failed: %v", err)
	}

	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}
	if students[0].Email != "asha@example.com" || students[0].Blocked {
		t.Errorf("unexpected first student: %+v", students[0])
	}
	if !students[1].Blocked || students[1].BlockReason != "fees outstanding" || students[1].Email != "" {
		t.Errorf("unexpected second student: %+v", students[1])
	}

	_, err = ParseStudentsCSV(strings.NewReader("id,name,blocked\ns1,Asha,maybe\n"))
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad boolean, got %v", err)
	}
}
