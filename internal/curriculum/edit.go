package curriculum

import (
	"context"
	"fmt"
	"strings"

	"github.com/p-n-ai/ubook/internal/activity"
)

// Staged mutations. Each one applies to the course's draft, opening the
// draft from the committed course when none is open. Nothing here touches
// storage until CommitEdit.

// BeginEdit opens (or returns the already open) draft of a course.
func (s *Store) BeginEdit(courseID string) (Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draftLocked(courseID)
	if d == nil {
		return Course{}, false
	}
	return d.Clone(), true
}

// Draft returns the open draft of a course without opening one.
func (s *Store) Draft(courseID string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[courseID]
	if !ok {
		return Course{}, false
	}
	return d.Clone(), true
}

// Editing reports whether a draft of the course is open.
func (s *Store) Editing(courseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.drafts[courseID]
	return ok
}

// UpdateCourseMetadata replaces the given scalar fields on the draft.
func (s *Store) UpdateCourseMetadata(courseID string, fields CourseFields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draftLocked(courseID)
	if d == nil {
		return false
	}
	fields.apply(d)
	return true
}

// AddModule appends a module titled by its 1-based position ("Module N").
func (s *Store) AddModule(courseID string) (Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draftLocked(courseID)
	if d == nil {
		return Module{}, false
	}

	m := Module{
		ID: s.uniqueID("m", func(id string) bool {
			for _, existing := range d.Modules {
				if existing.ID == id {
					return true
				}
			}
			return false
		}),
		Title:   fmt.Sprintf("Module %d", len(d.Modules)+1),
		Lessons: []Lesson{},
	}
	d.Modules = append(d.Modules, m)
	return m.Clone(), true
}

// AddLesson appends a published lesson of type typ titled "New <TYPE>".
// An unknown type is a no-op.
func (s *Store) AddLesson(courseID, moduleID string, typ LessonType) (Lesson, bool) {
	if !typ.Valid() {
		return Lesson{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draftLocked(courseID)
	if d == nil {
		return Lesson{}, false
	}
	mi := moduleIndex(d, moduleID)
	if mi < 0 {
		return Lesson{}, false
	}

	module := &d.Modules[mi]
	l := Lesson{
		ID: s.uniqueID("l", func(id string) bool {
			return lessonIndex(module, id) >= 0
		}),
		Title:       "New " + strings.ToUpper(string(typ)),
		Type:        typ,
		IsPublished: true,
	}
	module.Lessons = append(module.Lessons, l)
	return l.Clone(), true
}

// UpdateLesson replaces the given fields on one lesson of the draft. A Quiz
// is only accepted on a quiz lesson and within the exam bounds.
func (s *Store) UpdateLesson(courseID, moduleID, lessonID string, fields LessonFields) bool {
	if fields.Quiz != nil && ValidateQuiz(fields.Quiz) != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draftLocked(courseID)
	if d == nil {
		return false
	}
	mi := moduleIndex(d, moduleID)
	if mi < 0 {
		return false
	}
	li := lessonIndex(&d.Modules[mi], lessonID)
	if li < 0 {
		return false
	}

	lesson := &d.Modules[mi].Lessons[li]
	if fields.Quiz != nil && lesson.Type != LessonQuiz {
		return false
	}
	fields.apply(lesson)
	return true
}

// CommitEdit stamps lastUpdated on the draft, writes the whole catalog with
// the draft in place of the committed course and closes the draft. It
// reports false when no draft is open or the course was deleted meanwhile.
func (s *Store) CommitEdit(ctx context.Context, courseID string) (Course, bool, error) {
	var ev activity.Event
	defer s.emit(&ev)
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[courseID]
	if !ok {
		return Course{}, false, nil
	}
	i := s.indexLocked(courseID)
	if i < 0 {
		delete(s.drafts, courseID)
		return Course{}, false, nil
	}

	committed := d.Clone()
	committed.LastUpdated = s.stamp()

	next := make([]Course, len(s.courses))
	copy(next, s.courses)
	next[i] = committed
	if err := s.persistLocked(ctx, next); err != nil {
		return Course{}, false, err
	}
	delete(s.drafts, courseID)

	ev = activity.Event{
		Type:     activity.CourseCommitted,
		CourseID: courseID,
		Data:     map[string]any{"modules": len(committed.Modules)},
	}
	return committed.Clone(), true, nil
}

// DiscardEdit closes the draft without writing anything.
func (s *Store) DiscardEdit(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[courseID]; !ok {
		return false
	}
	delete(s.drafts, courseID)
	return true
}

// draftLocked returns the open draft, opening one from the committed course
// when needed. It returns nil when the course does not exist.
func (s *Store) draftLocked(courseID string) *Course {
	if d, ok := s.drafts[courseID]; ok {
		return d
	}
	i := s.indexLocked(courseID)
	if i < 0 {
		return nil
	}
	d := s.courses[i].Clone()
	s.drafts[courseID] = &d
	return &d
}

func moduleIndex(c *Course, moduleID string) int {
	for i, m := range c.Modules {
		if m.ID == moduleID {
			return i
		}
	}
	return -1
}

func lessonIndex(m *Module, lessonID string) int {
	for i, l := range m.Lessons {
		if l.ID == lessonID {
			return i
		}
	}
	return -1
}
