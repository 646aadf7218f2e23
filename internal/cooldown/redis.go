package cooldown

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gg:cd:"

// RedisGate is the shared cooldown backend.
type RedisGate struct {
	redis    redis.UniversalClient
	interval time.Duration
	now      func() time.Time
}

// NewRedis creates a RedisGate on the given client.
func NewRedis(client redis.UniversalClient, interval time.Duration, now func() time.Time) *RedisGate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &RedisGate{redis: client, interval: interval, now: now}
}

func redisKey(key string) string {
	return redisKeyPrefix + NormalizeKey(key)
}

// Check allows the attempt and records it, or denies it with the remaining
// wait taken from the key's TTL.
func (g *RedisGate) Check(ctx context.Context, key string) (Decision, error) {
	k := redisKey(key)
	stamp := strconv.FormatInt(g.now().UnixMilli(), 10)

	// The key can expire between SET NX and PTTL; one retry covers it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := g.redis.SetNX(ctx, k, stamp, g.interval).Result()
		if err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if ok {
			return Decision{Allowed: true}, nil
		}

		ttl, err := g.redis.PTTL(ctx, k).Result()
		if err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if ttl > 0 {
			return Decision{Allowed: false, Wait: ttl}, nil
		}
	}
	return Decision{Allowed: false, Wait: time.Millisecond}, nil
}
