package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goGuard/internal/keyed"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = time.Minute
)

// ErrUnavailable is returned when a shared backend cannot be reached.
var ErrUnavailable = errors.New("throttle backend unavailable")

// Config holds the window parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Decision is the outcome of one throttle check.
type Decision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below 1 for
// a denied decision.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter is satisfied by both backends.
type Limiter interface {
	Check(ctx context.Context, key string) (Decision, error)
}

type windowState struct {
	count   int
	resetAt time.Time
}

// Window is the in-process throttle backend.
type Window struct {
	cfg     Config
	now     func() time.Time
	entries *keyed.Map[windowState]
}

// New creates an in-process Window. A nil now uses time.Now.
func New(cfg Config, now func() time.Time) *Window {
	if now == nil {
		now = time.Now
	}
	return &Window{
		cfg:     cfg.withDefaults(),
		now:     now,
		entries: keyed.New[windowState](keyed.DefaultShards),
	}
}

// Check records one attempt for key and reports whether it is allowed.
func (w *Window) Check(ctx context.Context, key string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	now := w.now()
	var d Decision
	w.entries.Update(key, func(cur keyed.Entry[windowState], ok bool) (keyed.Entry[windowState], bool) {
		st := cur.Value
		if !ok || !now.Before(st.resetAt) {
			st = windowState{count: 1, resetAt: now.Add(w.cfg.Window)}
			d = Decision{Allowed: true, Count: 1}
			return keyed.Entry[windowState]{Value: st, ExpiresAt: st.resetAt}, true
		}
		if st.count >= w.cfg.MaxAttempts {
			d = Decision{Allowed: false, Count: st.count, RetryAfter: st.resetAt.Sub(now)}
			return cur, true
		}
		st.count++
		d = Decision{Allowed: true, Count: st.count}
		return keyed.Entry[windowState]{Value: st, ExpiresAt: st.resetAt}, true
	})
	return d, nil
}

// Sweep drops windows that have ended. It is safe to call concurrently with
// Check.
func (w *Window) Sweep(now time.Time) int {
	return w.entries.Sweep(now)
}

// Len reports how many origins currently hold state.
func (w *Window) Len() int {
	return w.entries.Len()
}
