package curriculum_test

import (
	"reflect"
	"testing"

	"github.com/p-n-ai/ubook/internal/curriculum"
	"github.com/p-n-ai/ubook/internal/storage"
)

func filterCatalog() curriculum.Option {
	return seedOf(
		curriculum.Course{ID: "s1", Name: "Starter Level 1", Category: "Starter Program", Level: "Foundation"},
		curriculum.Course{ID: "m1", Name: "Mover Level 1", Category: "Mover Program", Level: "Intermediate"},
		curriculum.Course{ID: "r1", Name: "Build a Rover", Category: "Robotics", Level: "Advanced"},
		curriculum.Course{ID: "x1", Name: "Uncategorised", Level: "Foundation"},
	)
}

func courseIDs(cs []curriculum.Course) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func TestStore_Filter(t *testing.T) {
	store := newTestStore(t, storage.NewMemoryKV(), filterCatalog())

	tests := []struct {
		name   string
		filter curriculum.Filter
		want   []string
	}{
		{"zero value matches all", curriculum.Filter{}, []string{"s1", "m1", "r1", "x1"}},
		{"placeholders match all", curriculum.Filter{Level: curriculum.AllLevels, Category: curriculum.AllCategories}, []string{"s1", "m1", "r1", "x1"}},
		{"search name case-insensitive", curriculum.Filter{Search: "ROVER"}, []string{"r1"}},
		{"search category", curriculum.Filter{Search: "program"}, []string{"s1", "m1"}},
		{"search trimmed", curriculum.Filter{Search: "  mover "}, []string{"m1"}},
		{"level", curriculum.Filter{Level: "Foundation"}, []string{"s1", "x1"}},
		{"category", curriculum.Filter{Category: "Robotics"}, []string{"r1"}},
		{"level and category", curriculum.Filter{Level: "Foundation", Category: "Starter Program"}, []string{"s1"}},
		{"restrict", curriculum.Filter{Restrict: true, IDs: []string{"x1", "m1"}}, []string{"m1", "x1"}},
		{"restrict empty", curriculum.Filter{Restrict: true}, []string{}},
		{"no match", curriculum.Filter{Search: "calculus"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := courseIDs(store.Filter(tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Match(t *testing.T) {
	f := curriculum.Filter{Search: "straße"}
	if !f.Match(curriculum.Course{Name: "STRASSE Robotics"}) {
		t.Error("Match() should case-fold ß to ss")
	}
}

func TestStore_Categories(t *testing.T) {
	store := newTestStore(t, storage.NewMemoryKV(), seedOf(
		curriculum.Course{ID: "a", Category: "Robotics"},
		curriculum.Course{ID: "b", Category: "Starter Program"},
		curriculum.Course{ID: "c", Category: "Robotics"},
		curriculum.Course{ID: "d"},
	))

	want := []string{"Robotics", "Starter Program"}
	if got := store.Categories(); !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}

func TestStore_ModuleExams(t *testing.T) {
	store := newTestStore(t, storage.NewMemoryKV(), seedOf(
		curriculum.Course{ID: "c1", Name: "Phonics", Modules: []curriculum.Module{
			{ID: "m1", Title: "Letters", Lessons: []curriculum.Lesson{
				{ID: "e1", Type: curriculum.LessonQuiz, IsPublished: true, Quiz: []curriculum.QuizQuestion{{ID: "q"}, {ID: "q2"}}},
			}},
			{ID: "m2", Title: "Words", Lessons: []curriculum.Lesson{
				{ID: "v", Type: curriculum.LessonVideo, IsPublished: true},
				{ID: "e2", Type: curriculum.LessonQuiz},
			}},
		}},
		curriculum.Course{ID: "c2", Name: "Robotics", Modules: []curriculum.Module{
			{ID: "m3", Title: "Motors", Lessons: []curriculum.Lesson{}},
		}},
	))

	rows := store.ModuleExams(curriculum.ExamQuery{})
	want := []curriculum.ModuleExam{
		{CourseID: "c1", CourseName: "Phonics", ModuleID: "m1", ModuleTitle: "Letters", LessonID: "e1", Status: curriculum.ExamLive, Questions: 2},
		{CourseID: "c1", CourseName: "Phonics", ModuleID: "m2", ModuleTitle: "Words", LessonID: "e2", Status: curriculum.ExamDraft},
		{CourseID: "c2", CourseName: "Robotics", ModuleID: "m3", ModuleTitle: "Motors", Status: curriculum.ExamNone},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("ModuleExams() =\n%+v\nwant\n%+v", rows, want)
	}

	if got := store.ModuleExams(curriculum.ExamQuery{Search: "words"}); len(got) != 1 || got[0].ModuleID != "m2" {
		t.Errorf("ModuleExams(search module) = %+v, want m2 only", got)
	}
	if got := store.ModuleExams(curriculum.ExamQuery{Search: "robot"}); len(got) != 1 || got[0].ModuleID != "m3" {
		t.Errorf("ModuleExams(search course) = %+v, want m3 only", got)
	}
	if got := store.ModuleExams(curriculum.ExamQuery{Restrict: true, CourseIDs: []string{"c2"}}); len(got) != 1 {
		t.Errorf("ModuleExams(restrict) = %+v, want one row", got)
	}
}

func TestExamStatusOf(t *testing.T) {
	two := []curriculum.QuizQuestion{{ID: "q1"}, {ID: "q2"}}

	tests := []struct {
		name          string
		lessons       []curriculum.Lesson
		wantStatus    curriculum.ExamStatus
		wantQuestions int
	}{
		{"no lessons", nil, curriculum.ExamNone, 0},
		{"no quiz lesson", []curriculum.Lesson{{ID: "v", Type: curriculum.LessonVideo, IsPublished: true}}, curriculum.ExamNone, 0},
		{"published exam", []curriculum.Lesson{{ID: "e", Type: curriculum.LessonQuiz, IsPublished: true, Quiz: two}}, curriculum.ExamLive, 2},
		{"unpublished exam", []curriculum.Lesson{{ID: "e", Type: curriculum.LessonQuiz, Quiz: two[:1]}}, curriculum.ExamDraft, 1},
		{"empty published exam", []curriculum.Lesson{{ID: "e", Type: curriculum.LessonQuiz, IsPublished: true, Quiz: []curriculum.QuizQuestion{}}}, curriculum.ExamLive, 0},
		{"first quiz lesson decides", []curriculum.Lesson{
			{ID: "v", Type: curriculum.LessonVideo, IsPublished: true},
			{ID: "e1", Type: curriculum.LessonQuiz, Quiz: two},
			{ID: "e2", Type: curriculum.LessonQuiz, IsPublished: true},
		}, curriculum.ExamDraft, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, questions := curriculum.ExamStatusOf(curriculum.Module{ID: "m", Lessons: tt.lessons})
			if status != tt.wantStatus || questions != tt.wantQuestions {
				t.Errorf("ExamStatusOf() = %s, %d; want %s, %d", status, questions, tt.wantStatus, tt.wantQuestions)
			}
		})
	}
}
