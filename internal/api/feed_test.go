package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/ubook/internal/activity"
)

func TestHub_FanOut(t *testing.T) {
	hub := NewHub()
	a, leaveA := hub.Subscribe()
	b, leaveB := hub.Subscribe()
	defer leaveB()

	_ = hub.LogEvent(activity.Event{Type: activity.CourseCreated})
	for name, ch := range map[string]<-chan activity.Event{"a": a, "b": b} {
		select {
		case e := <-ch:
			if e.Type != activity.CourseCreated {
				t.Errorf("subscriber %s got %s", name, e.Type)
			}
		default:
			t.Errorf("subscriber %s got nothing", name)
		}
	}

	leaveA()
	if hub.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", hub.Subscribers())
	}
}

func TestHub_DropsWhenFull(t *testing.T) {
	hub := NewHub()
	ch, leave := hub.Subscribe()
	defer leave()

	for range feedBuffer + 5 {
		if err := hub.LogEvent(activity.Event{Type: activity.QuizSaved}); err != nil {
			t.Fatalf("LogEvent() error = %v", err)
		}
	}
	if len(ch) != feedBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), feedBuffer)
	}
}

func TestFeed_StreamsCatalogEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket test in short mode")
	}

	env := newTestEnv(t)
	srv := httptest.NewServer(env.mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/feed", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	for env.server.Hub().Subscribers() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("feed subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	resp, err := http.Post(srv.URL+"/api/courses", "application/json", strings.NewReader(`{"name":"Live Course"}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	var e activity.Event
	if err := wsjson.Read(ctx, conn, &e); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if e.Type != activity.CourseCreated || e.CourseID == "" {
		t.Errorf("event = %+v, want course_created with a course id", e)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}
