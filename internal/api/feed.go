package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/ubook/internal/activity"
)

const (
	feedBuffer       = 32
	feedWriteTimeout = 5 * time.Second
)

// Hub fans catalog events out to feed subscribers. It is an activity.Logger,
// so it can sit beside the persistent logger in an activity.Multi.
type Hub struct {
	mu   sync.Mutex
	subs map[chan activity.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan activity.Event]struct{})}
}

// LogEvent delivers e to every subscriber. A subscriber whose buffer is full
// misses the event.
func (h *Hub) LogEvent(e activity.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			slog.Warn("feed subscriber lagging, event dropped", "type", e.Type)
		}
	}
	return nil
}

// Subscribe registers a subscriber. Call the returned func to leave.
func (h *Hub) Subscribe() (<-chan activity.Event, func()) {
	ch := make(chan activity.Event, feedBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// handleFeed streams catalog events as JSON messages until the client leaves.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "error", err)
		return
	}
	defer c.CloseNow()

	ctx := c.CloseRead(r.Context())
	events, leave := s.hub.Subscribe()
	defer leave()

	slog.Debug("feed subscriber joined", "remote", r.RemoteAddr)
	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case e := <-events:
			if err := writeEvent(ctx, c, e); err != nil {
				slog.Debug("feed subscriber left", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, c *websocket.Conn, e activity.Event) error {
	ctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, e)
}
