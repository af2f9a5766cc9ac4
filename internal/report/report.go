// Package report exports the catalog as an XLSX workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/ubook/internal/curriculum"
)

const (
	CoursesSheet = "Courses"
	ExamsSheet   = "Exams"
)

// ContentType is the MIME type of the exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	courseHeader = []any{"Course", "Category", "Level", "Modules", "Lessons", "Published Lessons", "Exams", "Questions", "Last Updated"}
	examHeader   = []any{"Course", "Module", "Status", "Questions"}
)

// CourseSummary is one row of the Courses sheet.
type CourseSummary struct {
	Name             string
	Category         string
	Level            string
	Modules          int
	Lessons          int
	PublishedLessons int
	Exams            int
	Questions        int
	LastUpdated      string
}

// Summarize counts a course's structure. Exams counts modules that have one.
func Summarize(c curriculum.Course) CourseSummary {
	s := CourseSummary{
		Name:     c.Name,
		Category: c.Category,
		Level:    c.Level,
		Modules:  len(c.Modules),
	}
	if !c.LastUpdated.IsZero() {
		s.LastUpdated = c.LastUpdated.Format("2006-01-02 15:04")
	}
	for _, m := range c.Modules {
		s.Lessons += len(m.Lessons)
		for _, l := range m.Lessons {
			if l.IsPublished {
				s.PublishedLessons++
			}
		}
		if exam, ok := m.Exam(); ok {
			s.Exams++
			s.Questions += len(exam.Quiz)
		}
	}
	return s
}

// WriteCatalog writes a workbook with a Courses sheet and an Exams sheet.
func WriteCatalog(w io.Writer, courses []curriculum.Course) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", CoursesSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(ExamsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	courseRows := [][]any{courseHeader}
	examRows := [][]any{examHeader}
	for _, c := range courses {
		s := Summarize(c)
		courseRows = append(courseRows, []any{
			s.Name, s.Category, s.Level, s.Modules, s.Lessons, s.PublishedLessons, s.Exams, s.Questions, s.LastUpdated,
		})
		for _, m := range c.Modules {
			status, questions := curriculum.ExamStatusOf(m)
			examRows = append(examRows, []any{c.Name, m.Title, statusLabel(status), questions})
		}
	}

	if err := writeRows(f, CoursesSheet, courseRows); err != nil {
		return err
	}
	if err := writeRows(f, ExamsSheet, examRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func statusLabel(s curriculum.ExamStatus) string {
	switch s {
	case curriculum.ExamLive:
		return "Live"
	case curriculum.ExamDraft:
		return "Draft"
	default:
		return "None"
	}
}
