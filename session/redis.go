package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// RedisStore persists sessions in Redis. Each session lives under
// "<prefix>:s:<sid>" with a per-user index set "<prefix>:u:<uid>".
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a RedisStore. An empty prefix uses "gg".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gg"
	}
	return &RedisStore{redis: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Save writes the session with a TTL matching its expiry.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	ttl := sess.TTL(s.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	userKey := s.userKey(sess.UserID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.SessionID), data, ttl)
		pipe.SAdd(ctx, userKey, sess.SessionID)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get loads a live session.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID
	if sess.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	userID := ""
	if sess, err := Decode(data); err == nil {
		userID = sess.UserID
	}

	_, err = deleteSessionLua.Run(ctx, s.redis, []string{s.key(sessionID), s.userKey(userID)}, sessionID).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes every indexed session of userID. A session saved
// concurrently with this call may survive it.
func (s *RedisStore) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	userKey := s.userKey(userID)
	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}

	var deleted *redis.IntCmd
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(deleted.Val()), nil
}
