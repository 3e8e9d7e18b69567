package formatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/results"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

// MaxSubjects is the most table rows that fit on the single marksheet page.
// Rows shrink from rowHeight toward minRowHeight once they no longer fit at full size.
const MaxSubjects = 26 // tableSpace / minRowHeight, rounded down

const (
	pageMargin   = 15.0
	contentWidth = 180.0 // A4 width minus both margins
	rowHeight    = 7.0
	minRowHeight = 4.0
	tableSpace   = 105.0 // vertical room for subject rows between the student block and the summary
)

var (
	colSubject = 80.0
	colMarks   = 30.0
	colGrade   = 30.0
	colTerm    = contentWidth - colSubject - colMarks - colGrade
)

// Marksheet is everything printed on one student's statement of marks.
type Marksheet struct {
	Student     *models.StudentSnapshot
	Set         models.ResultSet
	Term        string
	Summary     results.Summary
	GeneratedAt time.Time
}

// MarksheetRenderer draws marksheets as single-page A4 PDFs.
//
// Output depends only on the school header and the [Marksheet], so the same inputs
// always produce the same bytes.
type MarksheetRenderer struct {
	School   shared.SchoolConfig
	Compress bool
}

// NewMarksheetRenderer creates a [MarksheetRenderer] printing the given school header.
func NewMarksheetRenderer(school shared.SchoolConfig) *MarksheetRenderer {
	return &MarksheetRenderer{School: school, Compress: true}
}

// Render draws m and returns the finished PDF. Any failure wraps [shared.ErrRenderFailure]
// and no bytes are returned.
func (r *MarksheetRenderer) Render(m *Marksheet) ([]byte, error) {
	if err := validateMarksheet(m); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRenderFailure, err)
	}
	if err := r.checkPrintable(m); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRenderFailure, err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetCompression(r.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(m.GeneratedAt)
	pdf.SetModificationDate(m.GeneratedAt)
	pdf.SetTitle("Statement of Marks", false)
	pdf.SetSubject(m.Student.Name+" - "+m.Term, true)
	pdf.SetAuthor(r.School.Name, true)
	pdf.SetCreator("marksheet", false)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	r.drawHeader(pdf, tr)
	drawStudent(pdf, tr, m)
	drawTable(pdf, tr, m)
	drawSummary(pdf, m.Summary)
	drawSignatures(pdf)
	drawFooter(pdf, m.GeneratedAt)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRenderFailure, err)
	}

	return buf.Bytes(), nil
}

func validateMarksheet(m *Marksheet) error {
	switch {
	case m == nil:
		return fmt.Errorf("nil marksheet")
	case m.Student == nil:
		return fmt.Errorf("missing student")
	case strings.TrimSpace(m.Term) == "":
		return fmt.Errorf("missing term")
	case len(m.Set.Entries) == 0:
		return fmt.Errorf("no subjects to print")
	case len(m.Set.Entries) > MaxSubjects:
		return fmt.Errorf("%d subjects do not fit on one page (max %d)", len(m.Set.Entries), MaxSubjects)
	case m.GeneratedAt.IsZero():
		return fmt.Errorf("missing generation time")
	}

	for _, e := range m.Set.Entries {
		if e.Marks < 0 || e.Marks > results.SubjectFullMarks {
			return fmt.Errorf("marks %v for %s out of range", e.Marks, e.Subject)
		}
	}
	return nil
}

// checkPrintable rejects text the built-in PDF fonts cannot show. Those fonts only
// cover Windows-1252 and would print anything else as ".".
func (r *MarksheetRenderer) checkPrintable(m *Marksheet) error {
	fields := [][2]string{
		{"school name", r.School.Name},
		{"school address", r.School.Address},
		{"school contact", r.School.Contact},
		{"student name", m.Student.Name},
		{"student id", m.Student.ID},
		{"class", m.Student.ClassName},
		{"roll number", m.Student.RollNumber},
		{"term", m.Term},
	}
	for _, e := range m.Set.Entries {
		fields = append(fields,
			[2]string{"subject", e.Subject},
			[2]string{"grade", e.Grade},
			[2]string{"term", e.Term},
			[2]string{"class", e.ClassName},
		)
	}

	for _, f := range fields {
		for _, c := range f[1] {
			if _, ok := charmap.Windows1252.EncodeRune(c); !ok {
				return fmt.Errorf("%s %q has character %q the marksheet font cannot print", f[0], f[1], c)
			}
		}
	}
	return nil
}

// tableRowHeight fits n rows into tableSpace without going above rowHeight.
func tableRowHeight(n int) float64 {
	if h := tableSpace / float64(n); h < rowHeight {
		return h
	}
	return rowHeight
}

func (r *MarksheetRenderer) drawHeader(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 8, tr(r.School.Name), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if r.School.Address != "" {
		pdf.CellFormat(contentWidth, 5, tr(r.School.Address), "", 1, "C", false, 0, "")
	}
	if r.School.Contact != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentWidth, 5, tr(r.School.Contact), "", 1, "C", false, 0, "")
	}

	pdf.Ln(2)
	y := pdf.GetY()
	pdf.SetLineWidth(0.5)
	pdf.Line(pageMargin, y, pageMargin+contentWidth, y)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentWidth, 8, "Statement of Marks", "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func drawStudent(pdf *fpdf.Fpdf, tr func(string) string, m *Marksheet) {
	className := m.Student.ClassName
	if className == "" {
		className = m.Set.ClassName()
	}

	rows := [][2]string{
		{"Name", m.Student.Name},
		{"Student ID", m.Student.ID},
		{"Class", className},
		{"Roll No.", m.Student.RollNumber},
		{"Term", m.Term},
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 6, row[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentWidth-35, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, m *Marksheet) {
	pdf.SetLineWidth(0.2)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colSubject, rowHeight, "Subject", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colMarks, rowHeight, "Marks", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colGrade, rowHeight, "Grade", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colTerm, rowHeight, "Term", "1", 1, "C", true, 0, "")

	h, size := tableRowHeight(len(m.Set.Entries)), 10.0
	if h < 6 {
		size = 8
	}
	pdf.SetFont("Helvetica", "", size)
	for _, e := range m.Set.Entries {
		grade := e.Grade
		if grade == "" {
			grade = "-"
		}
		pdf.CellFormat(colSubject, h, tr(e.Subject), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colMarks, h, FormatMarks(e.Marks), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colGrade, h, tr(grade), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colTerm, h, tr(e.Term), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)
}

func drawSummary(pdf *fpdf.Fpdf, s results.Summary) {
	rows := [][2]string{
		{"Total Marks", FormatMarks(s.TotalMarks) + " / " + FormatMarks(s.FullMarks)},
		{"Percentage", fmt.Sprintf("%.2f%%", s.Percentage)},
		{"Overall Grade", s.Grade},
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 7, row[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(contentWidth-40, 7, row[1], "", 1, "L", false, 0, "")
	}

	if s.SubjectCount == results.BestOf {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(contentWidth, 5, fmt.Sprintf("Total counts the best %d subjects.", results.BestOf), "", 1, "L", false, 0, "")
	}
}

// drawSignatures places two blank signature lines above the footer.
func drawSignatures(pdf *fpdf.Fpdf) {
	_, pageHeight := pdf.GetPageSize()
	y := pageHeight - 45
	lineWidth := 60.0

	pdf.SetLineWidth(0.3)
	pdf.Line(pageMargin, y, pageMargin+lineWidth, y)
	pdf.Line(pageMargin+contentWidth-lineWidth, y, pageMargin+contentWidth, y)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(pageMargin, y+1)
	pdf.CellFormat(lineWidth, 6, "Class Teacher", "", 0, "C", false, 0, "")
	pdf.SetXY(pageMargin+contentWidth-lineWidth, y+1)
	pdf.CellFormat(lineWidth, 6, "Principal", "", 0, "C", false, 0, "")
}

func drawFooter(pdf *fpdf.Fpdf, at time.Time) {
	_, pageHeight := pdf.GetPageSize()
	pdf.SetXY(pageMargin, pageHeight-pageMargin-5)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(contentWidth, 5, "Generated on "+at.UTC().Format("2006-01-02 15:04 UTC"), "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// FormatMarks prints whole marks without decimals and anything else with two.
func FormatMarks(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// MarksheetFilename builds a filesystem-safe name such as "marksheet_s-104_Term_1.pdf".
func MarksheetFilename(studentID, term string) string {
	clean := func(s string) string {
		return strings.Trim(unsafeFilename.ReplaceAllString(s, "_"), "_")
	}
	return fmt.Sprintf("marksheet_%s_%s.pdf", clean(studentID), clean(term))
}
