package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const presenceChannel = "presence:events"

// PresenceEvent is published when a user's connection state changes. It is
// advisory telemetry for other services; the authoritative presence registry
// stays in-process.
type PresenceEvent struct {
	UserID   string    `json:"user_id"`
	ClientID string    `json:"client_id,omitempty"`
	Status   string    `json:"status"` // online, offline
	At       time.Time `json:"at"`
}

// PresenceAnnouncer publishes presence transitions to Redis pub/sub.
type PresenceAnnouncer struct {
	client *goredis.Client
	logger *zap.Logger
}

func NewPresenceAnnouncer(client *goredis.Client, logger *zap.Logger) *PresenceAnnouncer {
	return &PresenceAnnouncer{client: client, logger: logger}
}

func (a *PresenceAnnouncer) Online(ctx context.Context, userID, clientID string) {
	a.publish(ctx, PresenceEvent{
		UserID:   userID,
		ClientID: clientID,
		Status:   "online",
		At:       time.Now().UTC(),
	})
}

func (a *PresenceAnnouncer) Offline(ctx context.Context, userID string) {
	a.publish(ctx, PresenceEvent{
		UserID: userID,
		Status: "offline",
		At:     time.Now().UTC(),
	})
}

func (a *PresenceAnnouncer) publish(ctx context.Context, ev PresenceEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := a.client.Publish(ctx, presenceChannel, data).Err(); err != nil {
		a.logger.Warn("presence publish failed",
			zap.String("user_id", ev.UserID),
			zap.String("status", ev.Status),
			zap.Error(err),
		)
	}
}
