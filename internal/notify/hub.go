// Package notify pushes ranking-change events to subscribed clients over
// websockets. Delivery is best-effort; a client that cannot keep up is
// dropped rather than allowed to stall the hub.
package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// RankingEvent is the payload pushed when the top of the ranking changes.
type RankingEvent struct {
	Event string   `json:"event"`
	Top   []string `json:"top"`
}

// Hub fans ranking events out to all connected clients.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "notify-hub")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	h.logger.Info("notify hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("notify client registered",
				slog.String("client_id", client.id.String()),
				slog.Int("total_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("notify client unregistered",
				slog.String("client_id", client.id.String()),
				slog.Int("total_clients", count))

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("notify broadcast partial failure",
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("notify hub stopped")
			return
		}
	}
}

// NotifyRankingChanged pushes the new top positions to every client.
func (h *Hub) NotifyRankingChanged(top []string) {
	payload, err := json.Marshal(RankingEvent{Event: "rankingChanged", Top: top})
	if err != nil {
		h.logger.Error("encoding ranking event", slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("notify broadcast dropped - hub buffer full")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Close shuts down the hub and disconnects all clients.
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
