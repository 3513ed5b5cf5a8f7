package server

import (
	"bytes"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"servihub-chat/internal/domain"
	"servihub-chat/internal/events"
	"servihub-chat/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Rate limits per minute, per connection.
type RateLimits struct {
	MaxPingEvents  int
	MaxSendEvents  int
	MaxQueryEvents int
	MaxAuthEvents  int
}

var DefaultRateLimits = RateLimits{
	MaxPingEvents:  60,
	MaxSendEvents:  30,
	MaxQueryEvents: 120,
	MaxAuthEvents:  10,
}

// ClientRateLimiter is a per-connection token bucket over event classes.
type ClientRateLimiter struct {
	pingTokens  int
	sendTokens  int
	queryTokens int
	authTokens  int
	lastRefill  time.Time
	mu          sync.Mutex
}

func NewClientRateLimiter() *ClientRateLimiter {
	return &ClientRateLimiter{
		pingTokens:  DefaultRateLimits.MaxPingEvents,
		sendTokens:  DefaultRateLimits.MaxSendEvents,
		queryTokens: DefaultRateLimits.MaxQueryEvents,
		authTokens:  DefaultRateLimits.MaxAuthEvents,
		lastRefill:  time.Now(),
	}
}

func (rl *ClientRateLimiter) Allow(eventType string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastRefill) >= time.Minute {
		rl.pingTokens = DefaultRateLimits.MaxPingEvents
		rl.sendTokens = DefaultRateLimits.MaxSendEvents
		rl.queryTokens = DefaultRateLimits.MaxQueryEvents
		rl.authTokens = DefaultRateLimits.MaxAuthEvents
		rl.lastRefill = now
	}

	var tokens *int
	switch eventType {
	case events.TypePing:
		tokens = &rl.pingTokens
	case events.TypeSendQuickChat:
		tokens = &rl.sendTokens
	case events.TypeAuthenticate:
		tokens = &rl.authTokens
	default:
		tokens = &rl.queryTokens
	}

	if *tokens > 0 {
		*tokens--
		return true
	}
	return false
}

// Client is a single websocket connection. It starts unauthenticated; a
// successful handshake or authenticate event attaches a verified identity,
// and nothing else ever mutates it.
type Client struct {
	gateway *Gateway
	conn    *websocket.Conn
	send    chan []byte

	clientID string
	limiter  *ClientRateLimiter
	logger   *WebSocketLogger

	mu            sync.RWMutex
	userID        string
	role          domain.Role
	authenticated bool
	rooms         map[string]struct{}
	closed        bool

	connectedAt  time.Time
	lastActivity time.Time
}

func NewClient(gateway *Gateway, conn *websocket.Conn) *Client {
	now := time.Now()
	return &Client{
		gateway:      gateway,
		conn:         conn,
		send:         make(chan []byte, 256),
		clientID:     uuid.New().String(),
		limiter:      NewClientRateLimiter(),
		logger:       NewWebSocketLogger(),
		rooms:        make(map[string]struct{}),
		connectedAt:  now,
		lastActivity: now,
	}
}

func (c *Client) ClientID() string {
	return c.clientID
}

// UserID returns the authenticated user id, or "" before authentication.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// SetIdentity transitions the connection to the authenticated state.
func (c *Client) SetIdentity(ident services.Identity) {
	c.mu.Lock()
	c.userID = ident.UserID
	c.role = ident.Role
	c.authenticated = true
	c.mu.Unlock()
}

// Identity returns the connection's verified identity, if authenticated.
func (c *Client) Identity() (services.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.authenticated {
		return services.Identity{}, false
	}
	return services.Identity{UserID: c.userID, Role: c.role}, true
}

func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated
}

func (c *Client) joinedRoom(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) leftRoom(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// SendMessage queues a payload for delivery. It never blocks and never
// panics on a connection that closed mid-operation; an undeliverable payload
// is dropped.
func (c *Client) SendMessage(payload []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("client send buffer full", c.userID, c.clientID)
	}
}

func (c *Client) SendEnvelope(env events.Envelope) {
	payload, err := env.Marshal()
	if err != nil {
		c.logger.Error("envelope marshal failed", c.userID, c.clientID, err, zap.String("event_type", env.Type))
		return
	}
	c.SendMessage(payload)
}

// Close releases the send channel. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump() {
	defer func() {
		c.gateway.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastActivity = time.Now()
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket unexpected close", c.UserID(), c.clientID, err)
			}
			break
		}

		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
		c.lastActivity = time.Now()

		c.gateway.HandleMessage(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
