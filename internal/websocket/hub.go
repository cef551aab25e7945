package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a real-time change notification pushed to every client watching
// a home: completions, cancellations, rollovers, level changes.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	HomeID int64          `json:"home_id"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, homeID, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		HomeID: homeID,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains active WebSocket clients grouped by home and broadcasts
// messages to the home they watch.
type Hub struct {
	mu     sync.RWMutex
	byHome map[int64]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		byHome: make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its home's broadcast group.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	group, ok := h.byHome[c.homeID]
	if !ok {
		group = make(map[*Client]struct{})
		h.byHome[c.homeID] = group
	}
	group[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if group, ok := h.byHome[c.homeID]; ok {
		if _, ok := group[c]; ok {
			delete(group, c)
			close(c.send)
		}
		if len(group) == 0 {
			delete(h.byHome, c.homeID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every client watching the message's home.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.byHome[msg.HomeID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of clients watching the given home.
func (h *Hub) ClientCount(homeID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byHome[homeID])
}
