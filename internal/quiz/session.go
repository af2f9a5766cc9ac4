// Package quiz implements the bounded editing session used to author a
// module exam before it is saved back to the catalog.
package quiz

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/p-n-ai/ubook/internal/curriculum"
)

// Structural bounds of an exam. A session never drops below one question.
const (
	MaxQuestions = curriculum.MaxQuestions
	MinQuestions = 1
	MaxOptions   = curriculum.MaxOptions
	MinOptions   = curriculum.MinOptions
)

// State is the lifecycle position of a session.
type State string

const (
	StateEditing   State = "editing"
	StateSaved     State = "saved"
	StateCancelled State = "cancelled"
)

// Update carries the fields UpdateActiveQuestion replaces. Nil fields are kept.
type Update struct {
	Question      *string
	Options       []string
	CorrectAnswer *int
}

// Session is a working copy of one exam's question list plus the cursor of
// the question being edited. Rejected transitions return false and leave the
// session unchanged. After Save or Cancel every transition is rejected.
type Session struct {
	newID func() string

	mu        sync.Mutex
	questions []curriculum.QuizQuestion
	active    int
	state     State
}

// Option configures a Session.
type Option func(*Session)

// WithIDGenerator replaces the random question id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) { s.newID = gen }
}

// New starts a session over a copy of initial. An empty list starts with a
// single blank question. initial is not checked against the exam bounds;
// Save refuses a list that is still outside them.
func New(initial []curriculum.QuizQuestion, opts ...Option) *Session {
	s := &Session{
		newID: uuid.NewString,
		state: StateEditing,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.questions = make([]curriculum.QuizQuestion, 0, len(initial))
	for _, q := range initial {
		s.questions = append(s.questions, q.Clone())
	}
	if len(s.questions) == 0 {
		s.questions = append(s.questions, s.blank())
	}
	return s
}

// Questions returns a copy of the working list.
func (s *Session) Questions() []curriculum.QuizQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Active returns the cursor position and the question under it.
func (s *Session) Active() (int, curriculum.QuizQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.questions[s.active].Clone()
}

// State reports whether the session is still editing.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether every question and every option has non-blank text.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Ready(s.questions)
}

// Ready is the save predicate for a question list.
func Ready(questions []curriculum.QuizQuestion) bool {
	for _, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return false
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return false
			}
		}
	}
	return true
}

// SelectQuestion moves the cursor.
func (s *Session) SelectQuestion(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing || idx < 0 || idx >= len(s.questions) {
		return false
	}
	s.active = idx
	return true
}

// AddQuestion appends a blank question and selects it.
func (s *Session) AddQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing || len(s.questions) >= MaxQuestions {
		return false
	}
	s.questions = append(s.questions, s.blank())
	s.active = len(s.questions) - 1
	return true
}

// RemoveQuestion deletes the question at idx. The cursor steps back by one,
// stopping at the first question.
func (s *Session) RemoveQuestion(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing || len(s.questions) <= MinQuestions || idx < 0 || idx >= len(s.questions) {
		return false
	}
	s.questions = append(s.questions[:idx], s.questions[idx+1:]...)
	s.active = max(0, s.active-1)
	return true
}

// UpdateActiveQuestion replaces fields of the active question. The update is
// rejected as a whole when the options fall outside the bounds or the
// correct answer would not index an option.
func (s *Session) UpdateActiveQuestion(u Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing {
		return false
	}

	q := s.questions[s.active].Clone()
	if u.Question != nil {
		q.Question = *u.Question
	}
	if u.Options != nil {
		if len(u.Options) < MinOptions || len(u.Options) > MaxOptions {
			return false
		}
		q.Options = append([]string(nil), u.Options...)
	}
	if u.CorrectAnswer != nil {
		q.CorrectAnswer = *u.CorrectAnswer
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return false
	}

	s.questions[s.active] = q
	return true
}

// SetOption replaces the text of one option of the active question.
func (s *Session) SetOption(idx int, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.activeLocked()
	if q == nil || idx < 0 || idx >= len(q.Options) {
		return false
	}
	q.Options[idx] = text
	return true
}

// AddOption appends an empty option to the active question.
func (s *Session) AddOption() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.activeLocked()
	if q == nil || len(q.Options) >= MaxOptions {
		return false
	}
	q.Options = append(q.Options, "")
	return true
}

// RemoveOption deletes option idx of the active question. Removing the
// correct option resets the answer to the first option; removing one before
// it shifts the answer down so it keeps pointing at the same text.
func (s *Session) RemoveOption(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.activeLocked()
	if q == nil || len(q.Options) <= MinOptions || idx < 0 || idx >= len(q.Options) {
		return false
	}
	q.Options = append(q.Options[:idx], q.Options[idx+1:]...)
	q.CorrectAnswer = reindexAnswer(q.CorrectAnswer, idx)
	return true
}

func reindexAnswer(correct, removed int) int {
	switch {
	case removed == correct:
		return 0
	case removed < correct:
		return correct - 1
	default:
		return correct
	}
}

// SetCorrectAnswer marks option idx of the active question as correct.
func (s *Session) SetCorrectAnswer(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.activeLocked()
	if q == nil || idx < 0 || idx >= len(q.Options) {
		return false
	}
	q.CorrectAnswer = idx
	return true
}

// Save ends the session and returns the questions for the catalog's SaveQuiz.
// It is rejected while any question is not ready or the list breaks the
// exam bounds. Only one of several concurrent calls succeeds.
func (s *Session) Save() ([]curriculum.QuizQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing || !Ready(s.questions) || curriculum.ValidateQuiz(s.questions) != nil {
		return nil, false
	}
	s.state = StateSaved
	return s.copyLocked(), true
}

// Reopen returns a saved session to editing, for when the catalog write
// that followed Save failed.
func (s *Session) Reopen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSaved {
		return false
	}
	s.state = StateEditing
	return true
}

// Cancel ends the session and discards every edit.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing {
		return false
	}
	s.state = StateCancelled
	return true
}

func (s *Session) activeLocked() *curriculum.QuizQuestion {
	if s.state != StateEditing {
		return nil
	}
	return &s.questions[s.active]
}

func (s *Session) copyLocked() []curriculum.QuizQuestion {
	out := make([]curriculum.QuizQuestion, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Clone()
	}
	return out
}

func (s *Session) blank() curriculum.QuizQuestion {
	return curriculum.QuizQuestion{
		ID:      s.newID(),
		Options: []string{"", ""},
	}
}
