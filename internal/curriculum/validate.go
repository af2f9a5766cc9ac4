package curriculum

import (
	"errors"
	"fmt"
)

// Structural bounds of a module exam.
const (
	MaxQuestions = 10
	MinOptions   = 2
	MaxOptions   = 5
)

// ErrInvalidQuiz reports a question list outside the exam bounds.
var ErrInvalidQuiz = errors.New("invalid quiz")

// ValidateQuiz checks questions against the exam bounds. Blank text is
// allowed here; whether an exam is ready to save is the editor's concern.
func ValidateQuiz(questions []QuizQuestion) error {
	if len(questions) > MaxQuestions {
		return fmt.Errorf("%w: %d questions, at most %d", ErrInvalidQuiz, len(questions), MaxQuestions)
	}
	for i, q := range questions {
		if n := len(q.Options); n < MinOptions || n > MaxOptions {
			return fmt.Errorf("%w: question %d has %d options, want %d to %d", ErrInvalidQuiz, i+1, n, MinOptions, MaxOptions)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("%w: question %d answer %d does not index an option", ErrInvalidQuiz, i+1, q.CorrectAnswer)
		}
	}
	return nil
}

// validateCatalog applies ValidateQuiz to every lesson. A quiz on a lesson
// that is not quiz-type is rejected.
func validateCatalog(courses []Course) error {
	for _, c := range courses {
		for _, m := range c.Modules {
			for _, l := range m.Lessons {
				if l.Type != LessonQuiz {
					if len(l.Quiz) > 0 {
						return fmt.Errorf("%w: %s lesson %q carries questions", ErrInvalidQuiz, l.Type, l.ID)
					}
					continue
				}
				if err := ValidateQuiz(l.Quiz); err != nil {
					return fmt.Errorf("lesson %q: %w", l.ID, err)
				}
			}
		}
	}
	return nil
}
