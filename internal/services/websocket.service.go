package services

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nodewarden/internal/models"
)

// WebSocketMessage is the envelope sent to stream clients
type WebSocketMessage struct {
	Type      string          `json:"type"` // "report", "summary", "error"
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ClientConnection represents one connected stream client
type ClientConnection struct {
	ID   string
	Conn *websocket.Conn
	Send chan WebSocketMessage
}

// WebSocketHub fans submitted health reports out to connected clients
// and broadcasts a node summary on a fixed beat.
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	done       chan struct{}
	store      *ReportStore
	mu         sync.RWMutex
}

var wsHub *WebSocketHub

// InitWebSocketHub starts the hub and subscribes it to the report store.
func InitWebSocketHub(store *ReportStore) *WebSocketHub {
	wsHub = &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		done:       make(chan struct{}),
		store:      store,
	}

	store.OnSubmit(func(report models.HealthReport) {
		data, err := json.Marshal(report)
		if err != nil {
			zap.S().Errorf("ws: marshal report: %v", err)
			return
		}
		wsHub.Broadcast(WebSocketMessage{
			Type:      "report",
			Timestamp: time.Now(),
			Data:      data,
		})
	})

	go wsHub.run()
	return wsHub
}

// GetWebSocketHub returns the running hub
func GetWebSocketHub() *WebSocketHub {
	return wsHub
}

// NewClient wraps an upgraded connection and registers it with the hub.
// A client arriving after Stop is simply never registered; its pumps
// exit on the first connection error.
func (h *WebSocketHub) NewClient(conn *websocket.Conn) *ClientConnection {
	client := &ClientConnection{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan WebSocketMessage, 64),
	}
	select {
	case h.register <- client:
	case <-h.done:
	}
	return client
}

// run manages the hub's event loop
func (h *WebSocketHub) run() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			zap.S().Infof("ws: client connected: %s (total: %d)", client.ID, total)

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			zap.S().Infof("ws: client disconnected: %s (total: %d)", clientID, total)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// Client's send channel is full, skip this message
				}
			}
			h.mu.RUnlock()

		case <-ticker.C:
			summary := h.store.Summary()
			data, err := json.Marshal(summary)
			if err != nil {
				zap.S().Errorf("ws: marshal summary: %v", err)
				continue
			}
			h.Broadcast(WebSocketMessage{
				Type:      "summary",
				Timestamp: time.Now(),
				Data:      data,
			})
		}
	}
}

// Broadcast queues a message for all connected clients
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Hub is saturated, drop rather than block an observer cycle
	}
}

// Unregister removes a client from the hub. Safe to call after Stop,
// which readPump's deferred cleanup does during shutdown.
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// Stop shuts the hub down
func (h *WebSocketHub) Stop() {
	close(h.done)
}
