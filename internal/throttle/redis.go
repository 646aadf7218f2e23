package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gg:th:"

// KEYS[1] counter; ARGV[1] max attempts; ARGV[2] window in ms.
// Returns {count, pttl, allowed}.
var windowScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= max then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], window)
    ttl = window
  end
  return {current, ttl, 0}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], window)
end
return {current, redis.call('PTTL', KEYS[1]), 1}
`)

// RedisWindow is the shared throttle backend.
type RedisWindow struct {
	redis redis.UniversalClient
	cfg   Config
}

// NewRedis creates a RedisWindow on the given client.
func NewRedis(client redis.UniversalClient, cfg Config) *RedisWindow {
	return &RedisWindow{redis: client, cfg: cfg.withDefaults()}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// Check records one attempt for key and reports whether it is allowed.
func (w *RedisWindow) Check(ctx context.Context, key string) (Decision, error) {
	res, err := windowScript.Run(ctx, w.redis,
		[]string{redisKey(key)},
		w.cfg.MaxAttempts, w.cfg.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply %v", ErrUnavailable, res)
	}

	d := Decision{Allowed: res[2] == 1, Count: int(res[0])}
	if !d.Allowed {
		d.RetryAfter = time.Duration(res[1]) * time.Millisecond
	}
	return d, nil
}

// Reset clears the counter for key.
func (w *RedisWindow) Reset(ctx context.Context, key string) error {
	if err := w.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
