package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"remat-backend/internal/metrics"
	"remat-backend/internal/models"
)

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients. One user may hold several connections.
	clients map[*Client]bool

	// Outbound messages addressed to a role
	broadcast chan *Message

	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients for the read-only helpers
	mu sync.RWMutex
}

// Message is an encoded payload for every client with Role
type Message struct {
	Role string
	Data []byte
}

// Envelope is the JSON frame sent to dashboards
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.SetWebsocketConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			metrics.SetWebsocketConnections(count)
			log.Printf("✅ [WEBSOCKET] %s connected (%s), %d clients", client.UserID, client.UserRole, count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			metrics.SetWebsocketConnections(count)
			log.Printf("🔴 [WEBSOCKET] %s disconnected, %d clients", client.UserID, count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.UserRole != message.Role {
					continue
				}
				select {
				case client.send <- message.Data:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
					log.Printf("⚠️  Client buffer full, disconnecting: %s", client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// attach hands the client to the run loop. It reports false once the hub
// has stopped.
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach removes the client; a stopped hub already dropped it
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastToRole queues a message for all users with a specific role.
// It never blocks; when the queue is full the message is dropped.
func (h *Hub) BroadcastToRole(role string, msgType string, data interface{}) {
	payload, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		log.Printf("❌ Failed to marshal broadcast message: %v", err)
		return
	}

	select {
	case h.broadcast <- &Message{Role: role, Data: payload}:
	default:
		log.Printf("⚠️  Broadcast queue full, dropping %s message", msgType)
	}
}

// PublishBinEvent pushes a bin status change to admin dashboards
func (h *Hub) PublishBinEvent(event models.BinEvent) {
	h.BroadcastToRole(models.RoleAdmin, event.Type, event)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
