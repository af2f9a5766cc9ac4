package api

import (
	"net/http"

	"github.com/p-n-ai/ubook/internal/curriculum"
)

type addLessonRequest struct {
	Type curriculum.LessonType `json:"type"`
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.store.BeginEdit(r.PathValue("courseID"))
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.store.Draft(r.PathValue("courseID"))
	if !ok {
		writeError(w, http.StatusNotFound, "no open edit session")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var fields curriculum.CourseFields
	if !decodeJSON(w, r, &fields) {
		return
	}
	id := r.PathValue("courseID")
	if !s.store.UpdateCourseMetadata(id, fields) {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	s.writeDraft(w, id)
}

func (s *Server) handleAddModule(w http.ResponseWriter, r *http.Request) {
	module, ok := s.store.AddModule(r.PathValue("courseID"))
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	writeJSON(w, http.StatusCreated, module)
}

func (s *Server) handleAddLesson(w http.ResponseWriter, r *http.Request) {
	var req addLessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "unknown lesson type "+string(req.Type))
		return
	}

	lesson, ok := s.store.AddLesson(r.PathValue("courseID"), r.PathValue("moduleID"), req.Type)
	if !ok {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

func (s *Server) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	var fields curriculum.LessonFields
	if !decodeJSON(w, r, &fields) {
		return
	}
	if fields.Quiz != nil {
		if err := curriculum.ValidateQuiz(fields.Quiz); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	id := r.PathValue("courseID")
	if !s.store.UpdateLesson(id, r.PathValue("moduleID"), r.PathValue("lessonID"), fields) {
		writeError(w, http.StatusNotFound, "lesson not found or does not take a quiz")
		return
	}
	s.writeDraft(w, id)
}

func (s *Server) handleCommitEdit(w http.ResponseWriter, r *http.Request) {
	course, ok, err := s.store.CommitEdit(r.Context(), r.PathValue("courseID"))
	if err != nil {
		writeStoreError(w, "commit_edit", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no open edit session")
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (s *Server) handleDiscardEdit(w http.ResponseWriter, r *http.Request) {
	if !s.store.DiscardEdit(r.PathValue("courseID")) {
		writeError(w, http.StatusNotFound, "no open edit session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeDraft(w http.ResponseWriter, courseID string) {
	draft, ok := s.store.Draft(courseID)
	if !ok {
		writeError(w, http.StatusNotFound, "no open edit session")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
