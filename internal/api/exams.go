package api

import (
	"net/http"

	"github.com/p-n-ai/ubook/internal/curriculum"
	"github.com/p-n-ai/ubook/internal/quiz"
)

// Quiz session operations accepted by handleQuizOp.
const (
	opSelect         = "select"
	opAddQuestion    = "add_question"
	opRemoveQuestion = "remove_question"
	opUpdate         = "update"
	opSetOption      = "set_option"
	opAddOption      = "add_option"
	opRemoveOption   = "remove_option"
	opSetCorrect     = "set_correct"
)

type openSessionRequest struct {
	CourseID string `json:"courseId"`
	ModuleID string `json:"moduleId"`
}

type quizOpRequest struct {
	Op            string   `json:"op"`
	Index         int      `json:"index"`
	Text          string   `json:"text"`
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer"`
}

type sessionView struct {
	ID        string                    `json:"id"`
	CourseID  string                    `json:"courseId"`
	ModuleID  string                    `json:"moduleId"`
	Questions []curriculum.QuizQuestion `json:"questions"`
	Active    int                       `json:"active"`
	Ready     bool                      `json:"ready"`
	State     quiz.State                `json:"state"`
	Applied   *bool                     `json:"applied,omitempty"`
}

func viewOf(e *quiz.Entry) sessionView {
	active, _ := e.Session.Active()
	return sessionView{
		ID:        e.ID,
		CourseID:  e.Target.CourseID,
		ModuleID:  e.Target.ModuleID,
		Questions: e.Session.Questions(),
		Active:    active,
		Ready:     e.Session.Ready(),
		State:     e.Session.State(),
	}
}

func (s *Server) handleExamBoard(w http.ResponseWriter, r *http.Request) {
	v, err := s.viewer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := curriculum.ExamQuery{Search: r.URL.Query().Get("search")}
	q.CourseIDs, q.Restrict = s.dir.VisibleCourseIDs(v)

	writeJSON(w, http.StatusOK, map[string]any{"exams": s.store.ModuleExams(q)})
}

func (s *Server) handleToggleExam(w http.ResponseWriter, r *http.Request) {
	courseID, moduleID := r.PathValue("courseID"), r.PathValue("moduleID")
	ok, err := s.store.TogglePublish(r.Context(), courseID, moduleID)
	if err != nil {
		writeStoreError(w, "toggle_publish", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "module has no exam")
		return
	}

	course, _ := s.store.Course(courseID)
	for _, m := range course.Modules {
		if m.ID == moduleID {
			status, questions := curriculum.ExamStatusOf(m)
			writeJSON(w, http.StatusOK, map[string]any{"status": status, "questions": questions})
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenQuizSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	course, ok := s.store.Course(req.CourseID)
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	var initial []curriculum.QuizQuestion
	found := false
	for _, m := range course.Modules {
		if m.ID == req.ModuleID {
			found = true
			if exam, ok := m.Exam(); ok {
				initial = exam.Quiz
			}
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}

	entry := s.sessions.Open(quiz.Target{CourseID: req.CourseID, ModuleID: req.ModuleID}, quiz.New(initial))
	writeJSON(w, http.StatusCreated, viewOf(entry))
}

func (s *Server) handleGetQuizSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.sessions.Get(r.PathValue("sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "quiz session not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(entry))
}

// handleQuizOp applies one transition. A rejected transition is not an
// error: the response reports applied=false with the unchanged session.
func (s *Server) handleQuizOp(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.sessions.Get(r.PathValue("sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "quiz session not found")
		return
	}
	var req quizOpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := entry.Session
	var applied bool
	switch req.Op {
	case opSelect:
		applied = sess.SelectQuestion(req.Index)
	case opAddQuestion:
		applied = sess.AddQuestion()
	case opRemoveQuestion:
		applied = sess.RemoveQuestion(req.Index)
	case opUpdate:
		applied = sess.UpdateActiveQuestion(quiz.Update{
			Question:      req.Question,
			Options:       req.Options,
			CorrectAnswer: req.CorrectAnswer,
		})
	case opSetOption:
		applied = sess.SetOption(req.Index, req.Text)
	case opAddOption:
		applied = sess.AddOption()
	case opRemoveOption:
		applied = sess.RemoveOption(req.Index)
	case opSetCorrect:
		applied = sess.SetCorrectAnswer(req.Index)
	default:
		writeError(w, http.StatusBadRequest, "unknown quiz operation "+req.Op)
		return
	}

	view := viewOf(entry)
	view.Applied = &applied
	writeJSON(w, http.StatusOK, view)
}

// handleSaveQuizSession writes the session's questions as the module exam.
// The session's own Save gates the write, so a session is written at most
// once. A storage failure reopens the session so the save can be retried.
func (s *Server) handleSaveQuizSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.sessions.Get(r.PathValue("sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "quiz session not found")
		return
	}
	questions, ok := entry.Session.Save()
	if !ok {
		writeJSON(w, http.StatusConflict, viewOf(entry))
		return
	}

	exam, ok, err := s.store.SaveQuiz(r.Context(), entry.Target.CourseID, entry.Target.ModuleID, questions)
	if err != nil {
		entry.Session.Reopen()
		writeStoreError(w, "save_quiz", err)
		return
	}
	s.sessions.Close(entry.ID)
	if !ok {
		writeError(w, http.StatusNotFound, "module no longer exists")
		return
	}
	writeJSON(w, http.StatusOK, exam)
}

func (s *Server) handleCancelQuizSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.sessions.Get(r.PathValue("sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "quiz session not found")
		return
	}
	entry.Session.Cancel()
	s.sessions.Close(entry.ID)
	w.WriteHeader(http.StatusNoContent)
}
