package api

import (
	"bytes"
	"net/http"

	"github.com/p-n-ai/ubook/internal/access"
	"github.com/p-n-ai/ubook/internal/report"
)

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	v, err := s.viewer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role":    v.Role,
		"scope":   access.ViewScope(v.Role),
		"granted": s.matrix.Granted(v.Role),
		"rules":   s.matrix.Rules(),
	})
}

func (s *Server) handleSchoolOrders(w http.ResponseWriter, r *http.Request) {
	schoolID := r.PathValue("schoolID")
	if _, ok := s.dir.School(schoolID); !ok {
		writeError(w, http.StatusNotFound, "school not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": s.dir.PendingOrders(schoolID)})
}

func (s *Server) handleSchoolClasses(w http.ResponseWriter, r *http.Request) {
	schoolID := r.PathValue("schoolID")
	school, ok := s.dir.School(schoolID)
	if !ok {
		writeError(w, http.StatusNotFound, "school not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"school":  school,
		"classes": s.dir.Classes(schoolID),
	})
}

func (s *Server) handleApproveOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := s.dir.ApproveOrder(r.PathValue("orderID"))
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleDeclineOrder(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		writeError(w, http.StatusPreconditionRequired, "declining an order is irreversible; repeat with confirm=true")
		return
	}
	if _, ok := s.dir.DeclineOrder(r.PathValue("orderID")); !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCatalogReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteCatalog(&buf, s.store.Courses()); err != nil {
		writeError(w, http.StatusInternalServerError, "building report")
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
