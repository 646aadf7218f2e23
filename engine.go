package goGuard

import (
	"context"
	"time"

	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/cooldown"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/keyed"
	"github.com/MrEthical07/goGuard/internal/throttle"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/policy"
	"github.com/MrEthical07/goGuard/session"
	"go.uber.org/zap"
)

// Engine runs login, signup, identity administration and second-factor
// flows. It is safe for concurrent use.
type Engine struct {
	config     Config
	logger     *zap.Logger
	now        func() time.Time
	throttle   throttle.Limiter
	cooldown   cooldown.Limiter
	sessions   session.Store
	shared     bool
	jwtManager *jwt.Manager
	identities IdentityProvider
	factors    FactorProvider
	audit      *audit.Dispatcher
	metrics    *Metrics
	sweepers   []*keyed.Sweeper
	enrolling  *keyed.Map[struct{}]
	flows      flows.Service
}

// Close stops background sweepers and drains the audit queue. It is safe to
// call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	for _, s := range e.sweepers {
		s.Stop()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events discarded because the
// queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// SessionCookieName is the cookie carrying the session token.
func (e *Engine) SessionCookieName() string {
	if e == nil {
		return DefaultConfig().Session.CookieName
	}
	return e.config.Session.CookieName
}

// SecureCookies reports whether the session cookie must be marked Secure.
func (e *Engine) SecureCookies() bool {
	return e != nil && e.config.Session.SecureCookie
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login runs the login protocol for the origin attached with [WithClientIP]:
// throttle by origin, validate input, cooldown by email, verify credentials,
// audit and establish a session.
//
// Errors are [*RateLimitError], [ErrValidation], [*CooldownError],
// [ErrAuthenticationFailed] (for every rejected credential, including
// unknown and inactive identities) or [ErrExternalService].
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flows.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return loginResultFrom(res), nil
}

// Authorize exposes the pure policy decision so hosts can hide controls the
// caller may not use. It has no side effects and emits no audit event.
func (e *Engine) Authorize(actor policy.Role, action policy.Action, target policy.Role, isSelf bool) policy.Decision {
	if action == policy.ActionList {
		return policy.AuthorizeList(actor)
	}
	return policy.Authorize(actor, action, target, isSelf)
}
