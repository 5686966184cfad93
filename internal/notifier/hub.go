package notifier

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"evbooking/internal/models"
)

// TransitionEvent is pushed to every connected surface after a booking
// changes state.
type TransitionEvent struct {
	BookingID string               `json:"booking_id"`
	From      models.BookingStatus `json:"from,omitempty"`
	To        models.BookingStatus `json:"to"`
	At        time.Time            `json:"at"`
}

// wsConn is the subset of *websocket.Conn the hub needs.
type wsConn interface {
	WriteJSON(v any) error
	Close() error
}

type client struct {
	mu   sync.Mutex
	conn wsConn
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub broadcasts transition events to connected websocket clients.
// Events are fanned out by a single goroutine so every client observes
// transitions of a booking in the order they happened. Delivery is
// fire-and-forget: a failed client is dropped, never the transition.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *zap.Logger

	events    chan TransitionEvent
	closeOnce sync.Once

	upgrader websocket.Upgrader
}

// NewHub builds broadcast hub and starts its fan-out loop.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
		events:  make(chan TransitionEvent, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	go h.run()
	return h
}

// NotifyTransition implements the lifecycle notifier contract. It never
// blocks the caller; if the buffer is full the event is dropped.
func (h *Hub) NotifyTransition(bookingID string, from, to models.BookingStatus) {
	event := TransitionEvent{
		BookingID: bookingID,
		From:      from,
		To:        to,
		At:        time.Now().UTC(),
	}
	select {
	case h.events <- event:
	default:
		h.logger.Warn("event buffer full, dropping transition",
			zap.String("booking_id", bookingID))
	}
}

// Close stops the fan-out loop. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.events) })
}

func (h *Hub) run() {
	for event := range h.events {
		h.broadcast(event)
	}
}

func (h *Hub) broadcast(event TransitionEvent) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.writeJSON(event); err != nil {
			h.logger.Info("dropping websocket client", zap.Error(err))
			h.remove(c)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

// ClientCount returns how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and keeps the connection registered until
// the peer goes away. Inbound messages are discarded.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: ws}
	h.add(c)

	go func() {
		defer h.remove(c)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
