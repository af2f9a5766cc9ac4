// Package activity records catalog change events.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// Event types emitted by the curriculum store.
const (
	CourseCreated   = "course_created"
	CourseDeleted   = "course_deleted"
	CourseCommitted = "course_committed"
	ExamToggled     = "exam_toggled"
	QuizSaved       = "quiz_saved"
	OrderApproved   = "order_approved"
	OrderDeclined   = "order_declined"
)

// Event is a single catalog change.
type Event struct {
	Type      string         `json:"type"`
	CourseID  string         `json:"courseId,omitempty"`
	ModuleID  string         `json:"moduleId,omitempty"`
	LessonID  string         `json:"lessonId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Logger defines event logging behavior.
type Logger interface {
	LogEvent(event Event) error
}

// NopLogger ignores all events.
type NopLogger struct{}

func (NopLogger) LogEvent(Event) error {
	return nil
}

// MemoryLogger stores events in memory for tests.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{
		events: []Event{},
	}
}

func (l *MemoryLogger) LogEvent(event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// Types returns the recorded event types in order.
func (l *MemoryLogger) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]string, 0, len(l.events))
	for _, e := range l.events {
		types = append(types, e.Type)
	}
	return types
}

// PostgresLogger inserts events into the activity_events table.
type PostgresLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresLogger(pool *pgxpool.Pool) *PostgresLogger {
	return &PostgresLogger{pool: pool}
}

func (l *PostgresLogger) LogEvent(event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO activity_events (event_type, course_id, module_id, lesson_id, data, created_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		event.Type,
		nullIfEmpty(event.CourseID),
		nullIfEmpty(event.ModuleID),
		nullIfEmpty(event.LessonID),
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"course_id", event.CourseID,
		"module_id", event.ModuleID,
	)
	return nil
}

// Multi fans an event out to every logger and joins their errors.
type Multi []Logger

func (m Multi) LogEvent(event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	var errs []error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.LogEvent(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
