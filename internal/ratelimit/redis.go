package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the sorted set to the window, then adds the action only
// if the remaining count is under the limit. Scores are unix milliseconds.
var slidingWindow = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
if redis.call("ZCARD", key) >= limit then
	return 0
end
redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
return 1
`)

// RedisLimiter shares the sliding window between every replica that uses the same redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		// add a prefix not to collide with other data stored in the same redis
		prefix: "ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixMilli()
	allowed, err := slidingWindow.Run(ctx, l.client, []string{l.prefix + key},
		now, l.window.Milliseconds(), l.limit, fmt.Sprintf("%d-%s", now, uuid.NewString())).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return allowed == 1, nil
}
