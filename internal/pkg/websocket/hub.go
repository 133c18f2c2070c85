package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types pushed to feed subscribers
const (
	EventNoteCreated = "note.created"
	EventNoteUpdated = "note.updated"
	EventNoteDeleted = "note.deleted"
	EventRatingSaved = "rating.saved"
)

// Event is a single change notification
type Event struct {
	Type   string    `json:"type"`
	NoteID int64     `json:"noteId"`
	UserID int64     `json:"userId"`
	At     time.Time `json:"at"`
}

// Hub maintains the set of active clients and broadcasts change events to them
type Hub struct {
	// Registered clients
	clients map[*Client]struct{}

	// Outbound events waiting to be fanned out
	broadcast chan Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards count, read outside the Run loop
	mu    sync.RWMutex
	count int

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.removeClient(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.setCount(len(h.clients))
			h.logger.Info().
				Int64("userID", client.userID).
				Str("addr", client.remoteAddr).
				Msg("Feed client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.removeClient(client)
				h.logger.Info().
					Int64("userID", client.userID).
					Str("addr", client.remoteAddr).
					Msg("Feed client unregistered")
			}

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// broadcastEvent sends to every client; clients with a full queue are dropped
func (h *Hub) broadcastEvent(event Event) {
	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal feed event")
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().
				Int64("userID", client.userID).
				Str("addr", client.remoteAddr).
				Msg("Dropping slow feed client")
			h.removeClient(client)
		}
	}

	h.logger.Debug().
		Str("type", event.Type).
		Int64("noteID", event.NoteID).
		Int("clientCount", len(h.clients)).
		Msg("Feed event broadcasted")
}

// Publish queues an event for broadcast without blocking the caller
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Str("type", event.Type).Int64("noteID", event.NoteID).Msg("Feed broadcast queue full, event dropped")
	}
}

func (h *Hub) registerClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientsCount returns the number of connected clients
func (h *Hub) ClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
