package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/ubook/internal/curriculum"
)

type createCourseRequest struct {
	Template string `json:"template"`
	Name     string `json:"name"`
}

// handleListCourses serves the filtered catalog the caller may view, with an
// ETag over the exact response body.
func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	v, err := s.viewer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	f := curriculum.Filter{
		Search:   q.Get("search"),
		Level:    q.Get("level"),
		Category: q.Get("category"),
	}
	f.IDs, f.Restrict = s.dir.VisibleCourseIDs(v)

	body, err := json.Marshal(map[string]any{"courses": s.store.Filter(f)})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding courses")
		return
	}

	tag := etag(body)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// etag is a strong validator: the BLAKE2b-256 digest of body.
func etag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.store.Categories()})
}

func (s *Server) handleCatalogOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"levels":      curriculum.Levels,
		"categories":  curriculum.StandardCategories,
		"templates":   curriculum.Templates,
		"lessonTypes": []curriculum.LessonType{curriculum.LessonVideo, curriculum.LessonQuiz, curriculum.LessonAssignment, curriculum.LessonText},
	})
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	v, err := s.viewer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("courseID")
	course, ok := s.store.Course(id)
	if !ok || !s.visible(v, id) {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	course, ok, err := s.store.CreateCourse(r.Context(), req.Template, req.Name)
	if err != nil {
		writeStoreError(w, "create_course", err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "course name is required")
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		writeError(w, http.StatusPreconditionRequired, "deleting a course is irreversible; repeat with confirm=true")
		return
	}

	ok, err := s.store.DeleteCourse(r.Context(), r.PathValue("courseID"))
	if err != nil {
		writeStoreError(w, "delete_course", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
