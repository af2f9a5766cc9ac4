package curriculum

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/ubook/internal/activity"
	"github.com/p-n-ai/ubook/internal/storage"
)

// DefaultKey is the record key the catalog is persisted under.
const DefaultKey = "ubook_courses_v3"

const (
	defaultTemplate  = "Starter Level 1"
	defaultThumbnail = "https://images.unsplash.com/photo-1516321318423-f06f85e504b3?q=80&w=800&auto=format&fit=crop"
	examTitle        = "Module Assessment"
)

// Option configures a Store.
type Option func(*Store)

// WithKey persists the catalog under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock replaces time.Now for lastUpdated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the random id generator. gen receives the id
// prefix for the entity kind ("course-", "m", "l", "quiz-").
func WithIDGenerator(gen func(prefix string) string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithEventLogger records catalog changes to l.
func WithEventLogger(l activity.Logger) Option {
	return func(s *Store) { s.events = l }
}

// WithSeed replaces the compiled-in default catalog served when no record exists.
func WithSeed(seed func() ([]Course, error)) Option {
	return func(s *Store) { s.seed = seed }
}

// Store is the single source of truth for the course catalog.
//
// Mutations come in two groups. Immediate mutations (CreateCourse,
// DeleteCourse, TogglePublish, SaveQuiz) write the whole catalog before
// returning. Staged mutations (UpdateCourseMetadata, AddModule, AddLesson,
// UpdateLesson) change a per-course draft that only reaches storage through
// CommitEdit. Lookups that miss are reported as false, never as errors; the
// only errors returned are storage failures, which leave the catalog unchanged.
type Store struct {
	kv     storage.KeyValue
	key    string
	now    func() time.Time
	newID  func(prefix string) string
	events activity.Logger
	seed   func() ([]Course, error)

	mu      sync.RWMutex
	courses []Course
	drafts  map[string]*Course
}

// NewStore creates a catalog store over kv. Call Load before use.
func NewStore(kv storage.KeyValue, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		key:    DefaultKey,
		now:    time.Now,
		newID:  func(prefix string) string { return prefix + uuid.NewString() },
		events: activity.NopLogger{},
		seed:   DefaultCatalog,
		drafts: make(map[string]*Course),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted catalog, or seeds the default catalog when no
// record exists. A record that is malformed or fails the catalog schema is
// left in storage untouched and the defaults are served instead. Open drafts
// are discarded.
func (s *Store) Load(ctx context.Context) error {
	data, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}

	source := "storage"
	var courses []Course
	if found {
		courses, err = DecodeCatalog(data)
		if err != nil {
			slog.Warn("stored catalog unreadable, serving defaults", "key", s.key, "error", err)
			found = false
		}
	}
	if !found {
		source = "defaults"
		courses, err = s.seed()
		if err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}
	for i := range courses {
		normalize(&courses[i])
	}

	s.mu.Lock()
	s.courses = courses
	s.drafts = make(map[string]*Course)
	s.mu.Unlock()

	slog.Info("catalog loaded", "key", s.key, "source", source, "courses", len(courses))
	return nil
}

// Courses returns a copy of the catalog in display order.
func (s *Store) Courses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCourses(s.courses)
}

// Course returns the committed course with id.
func (s *Store) Course(id string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.courses[i].Clone(), true
	}
	return Course{}, false
}

// --- Immediate mutations ---

// CreateCourse prepends a new course built from template and persists the
// catalog. A blank name is a no-op and writes nothing.
func (s *Store) CreateCourse(ctx context.Context, template, name string) (Course, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Course{}, false, nil
	}
	template = strings.TrimSpace(template)
	if template == "" {
		template = defaultTemplate
	}

	var ev activity.Event
	defer s.emit(&ev)
	s.mu.Lock()
	defer s.mu.Unlock()

	category := "Mover Program"
	if strings.Contains(template, "Starter") {
		category = "Starter Program"
	}

	course := Course{
		ID:          s.uniqueCourseIDLocked(),
		Name:        name,
		Description: fmt.Sprintf("Official %s curriculum module for U Book Store learners.", template),
		Category:    category,
		Level:       template,
		Duration:    "15 Hours",
		Thumbnail:   defaultThumbnail,
		IsPurchased: true,
		LastUpdated: s.stamp(),
		Modules: []Module{{
			ID:    s.newID("m"),
			Title: "Introduction & Basics",
			Lessons: []Lesson{{
				ID:          s.newID("l"),
				Title:       "Welcome to the Course",
				Type:        LessonVideo,
				IsPublished: true,
			}},
		}},
	}

	next := make([]Course, 0, len(s.courses)+1)
	next = append(next, course)
	next = append(next, s.courses...)
	if err := s.persistLocked(ctx, next); err != nil {
		return Course{}, false, err
	}

	ev = activity.Event{
		Type:     activity.CourseCreated,
		CourseID: course.ID,
		Data:     map[string]any{"name": course.Name, "template": template},
	}
	return course.Clone(), true, nil
}

// DeleteCourse removes a course and any open draft of it, then persists.
// Confirmation is the caller's responsibility. Deletion is irreversible.
func (s *Store) DeleteCourse(ctx context.Context, courseID string) (bool, error) {
	var ev activity.Event
	defer s.emit(&ev)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(courseID)
	if i < 0 {
		return false, nil
	}

	next := make([]Course, 0, len(s.courses)-1)
	next = append(next, s.courses[:i]...)
	next = append(next, s.courses[i+1:]...)
	if err := s.persistLocked(ctx, next); err != nil {
		return false, err
	}
	delete(s.drafts, courseID)

	ev = activity.Event{Type: activity.CourseDeleted, CourseID: courseID}
	return true, nil
}

// TogglePublish flips isPublished on the module's exam and persists. It acts
// on the committed catalog, independent of any open draft.
func (s *Store) TogglePublish(ctx context.Context, courseID, moduleID string) (bool, error) {
	var ev activity.Event
	defer s.emit(&ev)
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, mi := s.moduleIndexLocked(courseID, moduleID)
	if mi < 0 {
		return false, nil
	}
	li := s.courses[ci].Modules[mi].examIndex()
	if li < 0 {
		return false, nil
	}

	next, course := s.replaceLocked(ci)
	exam := &course.Modules[mi].Lessons[li]
	exam.IsPublished = !exam.IsPublished
	if err := s.persistLocked(ctx, next); err != nil {
		return false, err
	}

	ev = activity.Event{
		Type:     activity.ExamToggled,
		CourseID: courseID,
		ModuleID: moduleID,
		LessonID: exam.ID,
		Data:     map[string]any{"isPublished": exam.IsPublished},
	}
	return true, nil
}

// SaveQuiz stores questions as the module's exam and persists. The first
// quiz-type lesson is replaced and published; when the module has none a
// published "Module Assessment" lesson is appended. Repeated saves replace.
// Questions outside the exam bounds are rejected with ErrInvalidQuiz.
func (s *Store) SaveQuiz(ctx context.Context, courseID, moduleID string, questions []QuizQuestion) (Lesson, bool, error) {
	if err := ValidateQuiz(questions); err != nil {
		return Lesson{}, false, err
	}

	var ev activity.Event
	defer s.emit(&ev)
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, mi := s.moduleIndexLocked(courseID, moduleID)
	if mi < 0 {
		return Lesson{}, false, nil
	}

	if questions == nil {
		questions = []QuizQuestion{}
	}

	next, course := s.replaceLocked(ci)
	module := &course.Modules[mi]
	li := module.examIndex()
	if li >= 0 {
		module.Lessons[li].Quiz = cloneQuestions(questions)
		module.Lessons[li].IsPublished = true
	} else {
		module.Lessons = append(module.Lessons, Lesson{
			ID:          s.newID("quiz-"),
			Title:       examTitle,
			Type:        LessonQuiz,
			IsPublished: true,
			Quiz:        cloneQuestions(questions),
		})
		li = len(module.Lessons) - 1
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return Lesson{}, false, err
	}

	exam := module.Lessons[li]
	ev = activity.Event{
		Type:     activity.QuizSaved,
		CourseID: courseID,
		ModuleID: moduleID,
		LessonID: exam.ID,
		Data:     map[string]any{"questions": len(questions)},
	}
	return exam.Clone(), true, nil
}

// --- internals ---

func (s *Store) indexLocked(courseID string) int {
	for i, c := range s.courses {
		if c.ID == courseID {
			return i
		}
	}
	return -1
}

// moduleIndexLocked returns the course and module positions; mi is -1 on a miss.
func (s *Store) moduleIndexLocked(courseID, moduleID string) (ci, mi int) {
	ci = s.indexLocked(courseID)
	if ci < 0 {
		return -1, -1
	}
	for i, m := range s.courses[ci].Modules {
		if m.ID == moduleID {
			return ci, i
		}
	}
	return ci, -1
}

// replaceLocked returns a new catalog slice whose entry at i is a deep copy
// that the caller may mutate before persisting.
func (s *Store) replaceLocked(i int) ([]Course, *Course) {
	next := make([]Course, len(s.courses))
	copy(next, s.courses)
	next[i] = s.courses[i].Clone()
	return next, &next[i]
}

// persistLocked writes next and, only on success, makes it the catalog.
func (s *Store) persistLocked(ctx context.Context, next []Course) error {
	data, err := EncodeCatalog(next)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	s.courses = next
	return nil
}

func (s *Store) uniqueCourseIDLocked() string {
	return s.uniqueID("course-", func(id string) bool { return s.indexLocked(id) >= 0 })
}

// uniqueID draws an id and suffixes it until taken reports it free.
func (s *Store) uniqueID(prefix string, taken func(string) bool) string {
	base := s.newID(prefix)
	id := base
	for n := 2; taken(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// stamp returns the current time without a monotonic reading, so stamps
// survive a JSON round trip unchanged.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Round(0)
}

// emit records e unless it was left zero. Mutations defer it ahead of their
// unlock so loggers run without the catalog lock held.
func (s *Store) emit(ev *activity.Event) {
	if ev.Type == "" {
		return
	}
	e := *ev
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.stamp()
	}
	if err := s.events.LogEvent(e); err != nil {
		slog.Warn("failed to record catalog event", "type", e.Type, "course_id", e.CourseID, "error", err)
	}
}
