package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler upgrades HTTP requests to feed subscriptions
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection godoc
// @Summary Subscribe to note changes
// @Description Upgrades the connection to a WebSocket that receives {type, noteId, userId, at} events
// @Tags realtime
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Router /realtime/notes [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	var userID int64
	if v, ok := c.Get("userID"); ok {
		userID, _ = v.(int64)
	}

	client := &Client{
		hub:        h.hub,
		conn:       conn,
		send:       make(chan []byte, sendQueueSize),
		userID:     userID,
		remoteAddr: conn.RemoteAddr().String(),
		logger:     h.logger,
	}
	if !h.hub.registerClient(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
