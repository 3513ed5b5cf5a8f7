package server

import "sync"

// Hub tracks connected clients and room membership. Rooms are broadcast
// groups: one per conversation plus one personal room per authenticated
// user. Membership is transport-scoped; a disconnecting client is removed
// from every room it joined.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[*Client]struct{}
	logger  *WebSocketLogger
}

func NewHub(logger *WebSocketLogger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.clientID] = c
	h.mu.Unlock()
}

// Unregister removes the client from every room it joined and closes its
// send channel. Safe to call for a client that was never registered.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for _, room := range c.Rooms() {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.clients, c.clientID)
	h.mu.Unlock()

	c.Close()
}

func (h *Hub) Subscribe(c *Client, room string) {
	h.mu.Lock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	h.mu.Unlock()

	c.joinedRoom(room)
}

func (h *Hub) Unsubscribe(c *Client, room string) {
	h.mu.Lock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	c.leftRoom(room)
}

// Broadcast delivers payload to every member of the room, the sender
// included when it joined the room itself.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.RLock()
	for c := range h.rooms[room] {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
