package server

import (
	"go.uber.org/zap"

	"servihub-chat/internal/events"
)

// Dispatcher fans events out. Room broadcasts are multicasts to whoever
// joined the conversation's room, sender included; party notifications are
// point-to-point through the presence registry and silently dropped when the
// target has no active connection.
type Dispatcher struct {
	hub      *Hub
	presence *PresenceRegistry
	logger   *WebSocketLogger
}

func NewDispatcher(hub *Hub, presence *PresenceRegistry) *Dispatcher {
	return &Dispatcher{
		hub:      hub,
		presence: presence,
		logger:   NewWebSocketLogger(),
	}
}

func (d *Dispatcher) BroadcastToConversation(conversationID string, env events.Envelope) {
	payload, err := env.Marshal()
	if err != nil {
		d.logger.Error("broadcast marshal failed", "", "", err, zap.String("event_type", env.Type))
		return
	}
	d.hub.Broadcast(events.ConversationRoom(conversationID), payload)
}

// NotifyParty pings the user's single registered connection. Advisory only:
// nothing is queued or retried for an offline user.
func (d *Dispatcher) NotifyParty(userID string, env events.Envelope) {
	c, ok := d.presence.Lookup(userID)
	if !ok {
		return
	}
	c.SendEnvelope(env)
}
