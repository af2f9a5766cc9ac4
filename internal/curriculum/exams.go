package curriculum

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// ExamStatus is a module exam's state on the exam board.
type ExamStatus string

const (
	ExamLive  ExamStatus = "live"
	ExamDraft ExamStatus = "draft"
	ExamNone  ExamStatus = "none"
)

// ModuleExam is one row of the exam board: a module and its exam, if any.
type ModuleExam struct {
	CourseID    string     `json:"courseId"`
	CourseName  string     `json:"courseName"`
	ModuleID    string     `json:"moduleId"`
	ModuleTitle string     `json:"moduleTitle"`
	LessonID    string     `json:"lessonId,omitempty"`
	Status      ExamStatus `json:"status"`
	Questions   int        `json:"questions"`
}

// ExamQuery narrows the exam board.
type ExamQuery struct {
	// Restrict limits rows to modules of CourseIDs.
	Restrict  bool
	CourseIDs []string
	// Search matches module titles and course names, case-insensitively.
	Search string
}

// ModuleExams lists every module of the committed catalog with its exam
// status, in catalog then curriculum order.
func (s *Store) ModuleExams(q ExamQuery) []ModuleExam {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(q.Search))

	out := []ModuleExam{}
	for _, c := range s.courses {
		if q.Restrict && !slices.Contains(q.CourseIDs, c.ID) {
			continue
		}
		for _, m := range c.Modules {
			if search != "" &&
				!strings.Contains(fold.String(m.Title), search) &&
				!strings.Contains(fold.String(c.Name), search) {
				continue
			}
			out = append(out, examRow(c, m))
		}
	}
	return out
}

// ExamStatusOf reports the module's exam status and question count.
func ExamStatusOf(m Module) (ExamStatus, int) {
	exam, ok := m.Exam()
	if !ok {
		return ExamNone, 0
	}
	if exam.IsPublished {
		return ExamLive, len(exam.Quiz)
	}
	return ExamDraft, len(exam.Quiz)
}

func examRow(c Course, m Module) ModuleExam {
	row := ModuleExam{
		CourseID:    c.ID,
		CourseName:  c.Name,
		ModuleID:    m.ID,
		ModuleTitle: m.Title,
	}
	row.Status, row.Questions = ExamStatusOf(m)
	if exam, ok := m.Exam(); ok {
		row.LessonID = exam.ID
	}
	return row
}
