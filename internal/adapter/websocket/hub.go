package websocket

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/observability/telemetry"
)

var ErrHubStopped = errors.New("websocket hub is stopped")

// Hub tracks connected browsers and fans broadcast frames out to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Frames for every client.
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	mu  sync.RWMutex
	log *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			telemetry.ConnectedClients.Set(0)
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			telemetry.ConnectedClients.Inc()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				telemetry.ConnectedClients.Dec()
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if err := client.enqueue(message); err != nil {
					h.log.Debug("Broadcast skipped client",
						zap.String("client_id", client.clientID),
						zap.Error(err),
					)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a frame for every connected client.
func (h *Hub) Broadcast(eventType string, data any) error {
	payload, err := encodeFrame(eventType, data)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Register adds a client. It fails once the hub has stopped.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister removes a client and closes its send buffer, which ends its
// write pump.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.closeSend()
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
