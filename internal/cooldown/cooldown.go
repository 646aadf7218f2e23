package cooldown

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard/internal/keyed"
)

// DefaultInterval is the minimum spacing between attempts for one identity.
const DefaultInterval = 2 * time.Second

// ErrUnavailable is returned when a shared backend cannot be reached.
var ErrUnavailable = errors.New("cooldown backend unavailable")

// Decision is the outcome of one cooldown check.
type Decision struct {
	Allowed bool
	Wait    time.Duration
}

// Limiter is satisfied by both backends.
type Limiter interface {
	Check(ctx context.Context, key string) (Decision, error)
}

// NormalizeKey lower-cases and trims an identity key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Gate is the in-process cooldown backend.
type Gate struct {
	interval time.Duration
	now      func() time.Time
	last     *keyed.Map[time.Time]
}

// New creates a Gate. Non-positive interval uses DefaultInterval; nil now uses
// time.Now.
func New(interval time.Duration, now func() time.Time) *Gate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{
		interval: interval,
		now:      now,
		last:     keyed.New[time.Time](keyed.DefaultShards),
	}
}

// Check allows the attempt and records it, or denies it with the remaining
// wait.
func (g *Gate) Check(ctx context.Context, key string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	now := g.now()
	var d Decision
	g.last.Update(NormalizeKey(key), func(cur keyed.Entry[time.Time], ok bool) (keyed.Entry[time.Time], bool) {
		if ok {
			elapsed := now.Sub(cur.Value)
			if elapsed >= 0 && elapsed < g.interval {
				d = Decision{Allowed: false, Wait: g.interval - elapsed}
				return cur, true
			}
		}
		d = Decision{Allowed: true}
		return keyed.Entry[time.Time]{Value: now, ExpiresAt: now.Add(g.interval)}, true
	})
	return d, nil
}

// Sweep drops timestamps whose interval has passed.
func (g *Gate) Sweep(now time.Time) int {
	return g.last.Sweep(now)
}

// Len reports how many identities currently hold state.
func (g *Gate) Len() int {
	return g.last.Len()
}
