// Package feed streams lookup events to operator dashboards over WebSocket.
package feed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ashureev/cinemabot/internal/domain"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const (
	subscriberBuffer = 64
	writeTimeout     = 5 * time.Second
)

type subscriber struct {
	conn   *websocket.Conn
	events chan domain.LookupEvent
}

// Hub fans lookup events out to connected subscribers. Slow subscribers
// lose events instead of blocking publishers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	logger      *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[string]*subscriber),
		logger:      logger,
	}
}

// Register adds a subscriber and returns its event channel. A previous
// subscriber with the same id is closed and replaced.
func (h *Hub) Register(id string, conn *websocket.Conn) <-chan domain.LookupEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.subscribers[id]; ok {
		h.closeLocked(id, existing, "subscriber replaced")
	}

	sub := &subscriber{conn: conn, events: make(chan domain.LookupEvent, subscriberBuffer)}
	h.subscribers[id] = sub
	h.logger.Info("Feed subscriber registered", "subscriber_id", id, "subscribers", len(h.subscribers))
	return sub.events
}

// Unregister removes the subscriber if it still owns conn.
func (h *Hub) Unregister(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[id]; ok && sub.conn == conn {
		close(sub.events)
		delete(h.subscribers, id)
		h.logger.Info("Feed subscriber unregistered", "subscriber_id", id, "subscribers", len(h.subscribers))
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev domain.LookupEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subscribers {
		select {
		case sub.events <- ev:
		default:
			h.logger.Warn("Feed subscriber is slow, dropping event", "subscriber_id", id, "lookup_id", ev.LookupID)
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subscribers {
		h.closeLocked(id, sub, "server shutting down")
	}
}

func (h *Hub) closeLocked(id string, sub *subscriber, reason string) {
	close(sub.events)
	delete(h.subscribers, id)
	if sub.conn != nil {
		_ = sub.conn.Close(websocket.StatusGoingAway, reason)
	}
}

// ServeHTTP upgrades the request and streams events as JSON text frames
// until either side goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("Feed WebSocket accept failed", "error", err)
		return
	}

	id := uuid.NewString()
	events := h.Register(id, ws)
	defer h.Unregister(id, ws)

	// Subscribers never send; CloseRead handles control frames and cancels
	// ctx when the peer disconnects.
	ctx := ws.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			_ = ws.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(ctx, ws, ev); err != nil {
				h.logger.Debug("Feed write failed", "subscriber_id", id, "error", err)
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, ws *websocket.Conn, ev domain.LookupEvent) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, ev)
}
