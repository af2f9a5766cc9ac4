package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/p-n-ai/ubook/internal/platform/config"
	"github.com/p-n-ai/ubook/internal/storage"
)

type probe struct{ err error }

func (p probe) HealthCheck(context.Context) error { return p.err }

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		checks     []storage.HealthChecker
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			checks:     []storage.HealthChecker{probe{}},
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "readyz reports unhealthy backend",
			checks:     []storage.HealthChecker{probe{}, probe{errors.New("connection refused")}},
			path:       "/readyz",
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newMux(tt.checks...)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Storage.Backend = config.BackendMemory
	cfg.Storage.SeedDir = ""
	cfg.Activity.Persist = false
	cfg.Access.DefaultRole = "main_center"
	return cfg
}

func TestBuild_MemoryBackend(t *testing.T) {
	a, err := build(t.Context(), testConfig(t))
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	defer a.close()

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/courses = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "course-starter-1") {
		t.Errorf("catalog should be seeded with defaults, got %s", rec.Body.String())
	}
}

func TestBuild_FileBackendPersists(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.FileDir = t.TempDir()

	a, err := build(t.Context(), cfg)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/courses", strings.NewReader(`{"name":"Persisted"}`))
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	a.close()

	again, err := build(t.Context(), cfg)
	if err != nil {
		t.Fatalf("second build() error = %v", err)
	}
	defer again.close()

	rec = httptest.NewRecorder()
	again.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses?search=persisted", nil))
	if !strings.Contains(rec.Body.String(), `"name":"Persisted"`) {
		t.Errorf("course did not survive a restart: %s", rec.Body.String())
	}
}

func TestBuild_SeedDir(t *testing.T) {
	dir := t.TempDir()
	course := "id: seeded\nname: From Seed Dir\n"
	if err := writeFile(dir+"/seeded.yaml", course); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.Storage.SeedDir = dir

	a, err := build(t.Context(), cfg)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	defer a.close()

	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "From Seed Dir") || strings.Contains(body, "course-starter-1") {
		t.Errorf("catalog should come from the seed dir, got %s", body)
	}
}

func TestBuild_InvalidDefaultRole(t *testing.T) {
	cfg := testConfig(t)
	cfg.Access.DefaultRole = "visitor"
	if _, err := build(t.Context(), cfg); err == nil {
		t.Error("build() should reject an unknown default role")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		lc        config.LogConfig
		wantJSON  bool
		wantDebug bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, true, false},
		{"text debug", config.LogConfig{Level: "debug", Format: "text"}, false, true},
		{"bad level", config.LogConfig{Level: "loud", Format: "json"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.lc)
			logger.Debug("debug line")
			logger.Info("info line")

			out := buf.String()
			if strings.HasPrefix(out, "{") != tt.wantJSON {
				t.Errorf("output %q, wantJSON %v", out, tt.wantJSON)
			}
			if strings.Contains(out, "debug line") != tt.wantDebug {
				t.Errorf("output %q, wantDebug %v", out, tt.wantDebug)
			}
		})
	}
}

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o644)
}
