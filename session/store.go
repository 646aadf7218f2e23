package session

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goGuard/internal/keyed"
)

var (
	// ErrNotFound is returned for missing or expired sessions.
	ErrNotFound = errors.New("session not found")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, sess *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	entries *keyed.Map[Session]
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore. A nil now uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: keyed.New[Session](keyed.DefaultShards),
		now:     now,
	}
}

func (m *MemoryStore) Save(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries.Set(sess.SessionID, *sess, time.Unix(sess.ExpiresAt, 0))
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := m.entries.Get(sessionID, m.now())
	if !ok {
		return nil, ErrNotFound
	}
	sess := e.Value
	return &sess, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries.Delete(sessionID)
	return nil
}

func (m *MemoryStore) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.entries.DeleteFunc(func(_ string, e keyed.Entry[Session]) bool {
		return e.Value.UserID == userID
	}), nil
}

// Sweep drops expired sessions.
func (m *MemoryStore) Sweep(now time.Time) int {
	return m.entries.Sweep(now)
}
