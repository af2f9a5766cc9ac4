// Package api exposes the catalog, the exam authoring sessions and the
// directory over JSON HTTP, plus a websocket feed of catalog changes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/p-n-ai/ubook/internal/access"
	"github.com/p-n-ai/ubook/internal/curriculum"
	"github.com/p-n-ai/ubook/internal/directory"
	"github.com/p-n-ai/ubook/internal/quiz"
)

// Request headers identifying the caller. They are advisory: the matrix
// gates affordances, it does not authenticate.
const (
	HeaderRole   = "X-Ubook-Role"
	HeaderSchool = "X-Ubook-School"
	HeaderUser   = "X-Ubook-User"
)

const maxBodyBytes = 1 << 20

// Server holds the HTTP handlers' dependencies.
type Server struct {
	store       *curriculum.Store
	dir         *directory.Directory
	matrix      *access.Matrix
	sessions    *quiz.Registry
	hub         *Hub
	defaultRole access.Role
}

// Option configures a Server.
type Option func(*Server)

// WithMatrix replaces the default permission matrix.
func WithMatrix(m *access.Matrix) Option {
	return func(s *Server) { s.matrix = m }
}

// WithDefaultRole sets the role assumed when a request names none.
func WithDefaultRole(r access.Role) Option {
	return func(s *Server) { s.defaultRole = r }
}

// WithHub streams catalog changes from hub to feed subscribers.
func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

// NewServer creates the API over a loaded store and a directory.
func NewServer(store *curriculum.Store, dir *directory.Directory, opts ...Option) *Server {
	s := &Server{
		store:       store,
		dir:         dir,
		matrix:      access.NewMatrix(access.DefaultRules),
		sessions:    quiz.NewRegistry(),
		defaultRole: access.MainCenter,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hub == nil {
		s.hub = NewHub()
	}
	return s
}

// Register mounts every API route on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses", s.handleListCourses)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/catalog/options", s.handleCatalogOptions)
	mux.HandleFunc("POST /api/courses", s.require("courses", "create", s.handleCreateCourse))
	mux.HandleFunc("GET /api/courses/{courseID}", s.handleGetCourse)
	mux.HandleFunc("DELETE /api/courses/{courseID}", s.require("courses", "delete", s.handleDeleteCourse))

	mux.HandleFunc("POST /api/courses/{courseID}/edit", s.require("courses", "edit", s.handleBeginEdit))
	mux.HandleFunc("GET /api/courses/{courseID}/edit", s.require("courses", "edit", s.handleGetDraft))
	mux.HandleFunc("PATCH /api/courses/{courseID}/edit", s.require("courses", "edit", s.handleUpdateMetadata))
	mux.HandleFunc("POST /api/courses/{courseID}/edit/modules", s.require("modules", "edit", s.handleAddModule))
	mux.HandleFunc("POST /api/courses/{courseID}/edit/modules/{moduleID}/lessons", s.require("modules", "edit", s.handleAddLesson))
	mux.HandleFunc("PATCH /api/courses/{courseID}/edit/modules/{moduleID}/lessons/{lessonID}", s.require("courses", "edit", s.handleUpdateLesson))
	mux.HandleFunc("POST /api/courses/{courseID}/edit/commit", s.require("courses", "edit", s.handleCommitEdit))
	mux.HandleFunc("DELETE /api/courses/{courseID}/edit", s.require("courses", "edit", s.handleDiscardEdit))

	mux.HandleFunc("GET /api/exams", s.handleExamBoard)
	mux.HandleFunc("POST /api/courses/{courseID}/modules/{moduleID}/exam/toggle", s.require("exams", "toggle", s.handleToggleExam))
	mux.HandleFunc("POST /api/quiz-sessions", s.require("exams", "edit", s.handleOpenQuizSession))
	mux.HandleFunc("GET /api/quiz-sessions/{sessionID}", s.require("exams", "edit", s.handleGetQuizSession))
	mux.HandleFunc("POST /api/quiz-sessions/{sessionID}/ops", s.require("exams", "edit", s.handleQuizOp))
	mux.HandleFunc("POST /api/quiz-sessions/{sessionID}/save", s.require("exams", "edit", s.handleSaveQuizSession))
	mux.HandleFunc("POST /api/quiz-sessions/{sessionID}/cancel", s.require("exams", "edit", s.handleCancelQuizSession))

	mux.HandleFunc("GET /api/permissions", s.handlePermissions)
	mux.HandleFunc("GET /api/schools/{schoolID}/orders", s.handleSchoolOrders)
	mux.HandleFunc("GET /api/schools/{schoolID}/classes", s.handleSchoolClasses)
	mux.HandleFunc("POST /api/orders/{orderID}/approve", s.require("orders", "approve", s.handleApproveOrder))
	mux.HandleFunc("POST /api/orders/{orderID}/decline", s.require("orders", "approve", s.handleDeclineOrder))

	mux.HandleFunc("GET /api/reports/catalog.xlsx", s.require("reports", "view", s.handleCatalogReport))
	mux.HandleFunc("GET /api/feed", s.handleFeed)
}

// Hub returns the change feed hub. Install it as a catalog event logger.
func (s *Server) Hub() *Hub { return s.hub }

// viewer resolves the caller from request headers.
func (s *Server) viewer(r *http.Request) (directory.Viewer, error) {
	role := s.defaultRole
	if h := r.Header.Get(HeaderRole); h != "" {
		parsed, err := access.ParseRole(h)
		if err != nil {
			return directory.Viewer{}, err
		}
		role = parsed
	}
	return directory.Viewer{
		Role:     role,
		SchoolID: strings.TrimSpace(r.Header.Get(HeaderSchool)),
		UserID:   strings.TrimSpace(r.Header.Get(HeaderUser)),
	}, nil
}

// require wraps next with a permission check for the caller's role.
func (s *Server) require(category, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.viewer(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !s.matrix.ForRole(v.Role).Allowed(category, action) {
			writeError(w, http.StatusForbidden, "role "+string(v.Role)+" may not "+action+" "+category)
			return
		}
		next(w, r)
	}
}

// visible reports whether the caller may see a course.
func (s *Server) visible(v directory.Viewer, courseID string) bool {
	ids, restrict := s.dir.VisibleCourseIDs(v)
	if !restrict {
		return true
	}
	for _, id := range ids {
		if id == courseID {
			return true
		}
	}
	return false
}

func confirmed(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "true"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError reports a persistence failure. The catalog is unchanged.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	slog.Error("catalog write failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "could not save the catalog")
}
