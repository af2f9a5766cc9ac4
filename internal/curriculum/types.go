// Package curriculum owns the course catalog: the course → module → lesson →
// quiz hierarchy, its staged and immediate mutations, and its persistence as
// a single record.
package curriculum

import "time"

// LessonType discriminates what a lesson's Content holds.
type LessonType string

const (
	LessonVideo      LessonType = "video"
	LessonQuiz       LessonType = "quiz"
	LessonAssignment LessonType = "assignment"
	LessonText       LessonType = "text"
)

// Valid reports whether t is one of the known lesson types.
func (t LessonType) Valid() bool {
	switch t {
	case LessonVideo, LessonQuiz, LessonAssignment, LessonText:
		return true
	}
	return false
}

// Course is a top-level catalog unit. Module order is the curriculum sequence.
type Course struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Category    string    `json:"category" yaml:"category"`
	Level       string    `json:"level" yaml:"level"`
	Duration    string    `json:"duration" yaml:"duration"`
	Thumbnail   string    `json:"thumbnail" yaml:"thumbnail"`
	IsPurchased bool      `json:"isPurchased,omitempty" yaml:"is_purchased"`
	LastUpdated time.Time `json:"lastUpdated" yaml:"last_updated"`
	Modules     []Module  `json:"modules" yaml:"modules"`
}

// Module groups lessons; its first quiz-type lesson is the module's exam.
type Module struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Lessons []Lesson `json:"lessons" yaml:"lessons"`
}

// Lesson is an atomic content item. Content is a URL for videos and body text
// for text lessons. Only quiz lessons carry a Quiz; an empty exam is kept as
// an empty list so it survives a round trip through storage.
type Lesson struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Type        LessonType     `json:"type" yaml:"type"`
	IsPublished bool           `json:"isPublished" yaml:"is_published"`
	Content     string         `json:"content,omitempty" yaml:"content"`
	Quiz        []QuizQuestion `json:"quiz" yaml:"quiz"`
}

// QuizQuestion is one multiple-choice question. CorrectAnswer indexes Options.
type QuizQuestion struct {
	ID            string   `json:"id" yaml:"id"`
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correct_answer"`
}

// CourseFields is a partial update of a course's scalar metadata. Nil fields
// are left unchanged.
type CourseFields struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Level       *string `json:"level,omitempty"`
	Duration    *string `json:"duration,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
}

func (f CourseFields) apply(c *Course) {
	if f.Name != nil {
		c.Name = *f.Name
	}
	if f.Description != nil {
		c.Description = *f.Description
	}
	if f.Category != nil {
		c.Category = *f.Category
	}
	if f.Level != nil {
		c.Level = *f.Level
	}
	if f.Duration != nil {
		c.Duration = *f.Duration
	}
	if f.Thumbnail != nil {
		c.Thumbnail = *f.Thumbnail
	}
}

// LessonFields is a partial update of one lesson. Nil fields are left unchanged.
type LessonFields struct {
	Title       *string        `json:"title,omitempty"`
	IsPublished *bool          `json:"isPublished,omitempty"`
	Content     *string        `json:"content,omitempty"`
	Quiz        []QuizQuestion `json:"quiz,omitempty"`
}

func (f LessonFields) apply(l *Lesson) {
	if f.Title != nil {
		l.Title = *f.Title
	}
	if f.IsPublished != nil {
		l.IsPublished = *f.IsPublished
	}
	if f.Content != nil {
		l.Content = *f.Content
	}
	if f.Quiz != nil {
		l.Quiz = cloneQuestions(f.Quiz)
	}
}

// Exam returns the module's first quiz-type lesson.
func (m Module) Exam() (Lesson, bool) {
	if i := m.examIndex(); i >= 0 {
		return m.Lessons[i].Clone(), true
	}
	return Lesson{}, false
}

func (m Module) examIndex() int {
	for i, l := range m.Lessons {
		if l.Type == LessonQuiz {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the course.
func (c Course) Clone() Course {
	out := c
	if c.Modules != nil {
		out.Modules = make([]Module, len(c.Modules))
		for i, m := range c.Modules {
			out.Modules[i] = m.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the module.
func (m Module) Clone() Module {
	out := m
	if m.Lessons != nil {
		out.Lessons = make([]Lesson, len(m.Lessons))
		for i, l := range m.Lessons {
			out.Lessons[i] = l.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the lesson.
func (l Lesson) Clone() Lesson {
	out := l
	out.Quiz = cloneQuestions(l.Quiz)
	return out
}

// Clone returns a deep copy of the question.
func (q QuizQuestion) Clone() QuizQuestion {
	out := q
	if q.Options != nil {
		out.Options = append([]string(nil), q.Options...)
	}
	return out
}

func cloneQuestions(qs []QuizQuestion) []QuizQuestion {
	if qs == nil {
		return nil
	}
	out := make([]QuizQuestion, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}

func cloneCourses(cs []Course) []Course {
	out := make([]Course, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}
