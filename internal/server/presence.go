package server

import "sync"

// PresenceRegistry maps a user id to their active connection. It is a
// process-scoped, last-write-wins map: a user's second simultaneous
// connection overwrites the pointer, and the personal-channel notification
// path only ever targets the entry held here. Room broadcasts are unaffected
// and still reach every connection that joined a room.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[string]*Client
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{entries: make(map[string]*Client)}
}

// Register points the user's presence entry at c, replacing any previous
// connection's entry.
func (p *PresenceRegistry) Register(userID string, c *Client) {
	p.mu.Lock()
	p.entries[userID] = c
	p.mu.Unlock()
}

// Lookup returns the user's active connection, if any.
func (p *PresenceRegistry) Lookup(userID string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.entries[userID]
	return c, ok
}

// Deregister removes the user's entry only when it still points at c, so a
// stale disconnect cannot evict a newer connection that re-registered in the
// meantime. Reports whether the entry was removed.
func (p *PresenceRegistry) Deregister(userID string, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.entries[userID]; ok && current == c {
		delete(p.entries, userID)
		return true
	}
	return false
}

// Clear empties the registry. Called at service shutdown.
func (p *PresenceRegistry) Clear() {
	p.mu.Lock()
	p.entries = make(map[string]*Client)
	p.mu.Unlock()
}

func (p *PresenceRegistry) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
