package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ConnectionGate limits websocket connection attempts per client IP.
type ConnectionGate interface {
	Allow(ctx context.Context, ip string) bool
}

// WebSocketHandler upgrades HTTP requests to websocket connections and hands
// them to the gateway. The connection is accepted with or without a
// credential; authentication is the gateway's concern.
type WebSocketHandler struct {
	gateway *Gateway
	gate    ConnectionGate
	logger  *WebSocketLogger
}

func NewWebSocketHandler(gateway *Gateway, gate ConnectionGate) *WebSocketHandler {
	return &WebSocketHandler{
		gateway: gateway,
		gate:    gate,
		logger:  NewWebSocketLogger(),
	}
}

func (h *WebSocketHandler) Handle(c *gin.Context) {
	if h.gate != nil && !h.gate.Allow(c.Request.Context(), c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many connection attempts"})
		return
	}

	token := h.extractToken(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "", "", err)
		return
	}

	client := NewClient(h.gateway, conn)
	h.gateway.Connect(client, token)

	go client.writePump()
	go client.readPump()
}

// extractToken pulls the handshake credential out of its carriers in
// preference order: Authorization header first, then the token query
// parameter. An explicit authenticate event may still follow.
func (h *WebSocketHandler) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return c.Query("token")
}
