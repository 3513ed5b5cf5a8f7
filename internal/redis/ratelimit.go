package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectionLimiter caps websocket connection attempts per client IP using a
// fixed window counter in Redis. It fails open: if Redis is unreachable the
// connection is allowed and the error logged.
type ConnectionLimiter struct {
	client *goredis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

func NewConnectionLimiter(client *goredis.Client, limit int, window time.Duration, logger *zap.Logger) *ConnectionLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &ConnectionLimiter{client: client, limit: limit, window: window, logger: logger}
}

var connLimitScript = goredis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

func (l *ConnectionLimiter) Allow(ctx context.Context, ip string) bool {
	key := fmt.Sprintf("ratelimit:%s:ws_connect", ip)
	count, err := connLimitScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Int()
	if err != nil {
		l.logger.Warn("connection rate limit check failed", zap.String("ip", ip), zap.Error(err))
		return true
	}
	return count <= l.limit
}
