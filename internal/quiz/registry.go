package quiz

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Target identifies the module whose exam a session edits.
type Target struct {
	CourseID string `json:"courseId"`
	ModuleID string `json:"moduleId"`
}

// Entry is a registered session with its target.
type Entry struct {
	ID        string
	Target    Target
	Session   *Session
	StartedAt time.Time
}

// Registry holds the open sessions of a process. Sessions that reach a
// terminal state are dropped with Close.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Entry)}
}

// Open registers a new session for target.
func (r *Registry) Open(target Target, s *Session) *Entry {
	e := &Entry{
		ID:        uuid.NewString(),
		Target:    target,
		Session:   s,
		StartedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.sessions[e.ID] = e
	r.mu.Unlock()
	return e
}

// Get returns the session registered under id.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	return e, ok
}

// Close forgets a session.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
