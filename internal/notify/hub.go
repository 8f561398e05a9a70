package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event is the data-changed notification broadcast after every successful
// local save. UI collaborators re-render on it; sibling Obol instances
// re-run their load and compare-and-swap step.
type Event struct {
	Type        string    `json:"type"`
	FamilyID    string    `json:"family_id"`
	DataVersion int       `json:"data_version"`
	At          time.Time `json:"at"`
}

// DataChanged builds the standard data-changed event for a family.
func DataChanged(familyID string, dataVersion int) Event {
	return Event{
		Type:        "data_changed",
		FamilyID:    familyID,
		DataVersion: dataVersion,
		At:          time.Now().UTC(),
	}
}

// Hub fans events out to all subscribed WebSocket clients and in-process
// listeners. In-process listeners are invoked synchronously on the
// broadcasting goroutine, so they must be cheap.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	listeners []func(Event)
	logger    *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Subscribe registers an in-process listener for every broadcast event.
func (h *Hub) Subscribe(fn func(Event)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Register adds a WebSocket client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast delivers an event to every client and listener. Slow clients
// with a full buffer miss the event rather than block the save path; they
// catch up on the next periodic sync anyway.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "error", err)
		return
	}

	h.mu.RLock()
	listeners := h.listeners
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
