package flows

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/cooldown"
	"github.com/MrEthical07/goGuard/internal/throttle"
	"go.uber.org/zap"
)

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	LoginCooldown    int
	LoginInvalid     int
	SessionCreated   int
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Hooks
	Limits  Limits
	Metrics LoginMetrics

	OriginFromContext func(context.Context) string
	CheckThrottle     func(context.Context, string) (throttle.Decision, error)
	CheckCooldown     func(context.Context, string) (cooldown.Decision, error)
	VerifyCredentials func(ctx context.Context, email, password string) (IdentityRecord, error)
	IssueSession      func(context.Context, IdentityRecord) (*SessionGrant, error)
}

// RunLogin executes the login protocol: throttle by origin, validate input,
// cooldown by email, verify credentials, audit and establish a session. The
// first denial short-circuits the rest.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*AuthResult, error) {
	if deps.CheckThrottle == nil ||
		deps.CheckCooldown == nil ||
		deps.VerifyCredentials == nil ||
		deps.IssueSession == nil {
		return nil, deps.Errors.EngineNotReady
	}
	limits := deps.Limits.withDefaults()

	origin := UnknownOrigin
	if deps.OriginFromContext != nil {
		if o := deps.OriginFromContext(ctx); o != "" {
			origin = o
		}
	}
	target := auditEmail(email)

	td, err := deps.CheckThrottle(ctx, origin)
	if err != nil {
		return nil, deps.backendFailure(ctx, "throttle", target, err)
	}
	if !td.Allowed {
		deps.inc(deps.Metrics.LoginRateLimited)
		deps.emit(ctx, audit.Event{
			Action:      audit.ActionLoginRateLimited,
			TargetEmail: target,
			Outcome:     audit.OutcomeDenied,
			Metadata: map[string]string{
				"retry_after_seconds": strconv.Itoa(td.RetryAfterSeconds()),
			},
		})
		return nil, deps.Errors.RateLimited(td.RetryAfter)
	}

	normalized, ok := NormalizeEmail(email, limits.MaxEmailLength)
	if !ok || !ValidPassword(password, limits) {
		deps.inc(deps.Metrics.LoginInvalid)
		return nil, deps.Errors.Validation
	}

	cd, err := deps.CheckCooldown(ctx, normalized)
	if err != nil {
		return nil, deps.backendFailure(ctx, "cooldown", normalized, err)
	}
	if !cd.Allowed {
		deps.inc(deps.Metrics.LoginCooldown)
		deps.emit(ctx, audit.Event{
			Action:      audit.ActionLoginCooldown,
			TargetEmail: normalized,
			Outcome:     audit.OutcomeDenied,
			Metadata: map[string]string{
				"wait_ms": strconv.FormatInt(cd.Wait.Milliseconds(), 10),
			},
		})
		return nil, deps.Errors.CooldownActive(cd.Wait)
	}

	ident, err := deps.VerifyCredentials(ctx, normalized, password)
	if err != nil {
		if deps.isCredentialFailure(err) {
			return nil, deps.credentialFailure(ctx, normalized, CodeInvalidCredentials)
		}
		return nil, deps.backendFailure(ctx, "verify_credentials", normalized, err)
	}
	if ident.ID == "" {
		return nil, deps.credentialFailure(ctx, normalized, CodeInvalidCredentials)
	}
	if !ident.Active {
		return nil, deps.credentialFailure(ctx, normalized, CodeInactive)
	}

	deps.inc(deps.Metrics.LoginSuccess)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionLoginSuccess,
		ActorID:     ident.ID,
		TargetEmail: normalized,
		Outcome:     audit.OutcomeSuccess,
	})

	grant, err := deps.IssueSession(ctx, ident)
	if err != nil {
		deps.logger().Warn("login session creation failed", zap.String("user_id", ident.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: session", deps.Errors.ExternalService)
	}
	deps.inc(deps.Metrics.SessionCreated)

	return &AuthResult{Identity: ident, Grant: *grant}, nil
}

func (deps LoginDeps) isCredentialFailure(err error) bool {
	return (deps.Errors.AuthenticationFailed != nil && errors.Is(err, deps.Errors.AuthenticationFailed)) ||
		(deps.Errors.IdentityNotFound != nil && errors.Is(err, deps.Errors.IdentityNotFound))
}

// credentialFailure records the precise cause in the audit trail and returns
// the single generic error to the caller.
func (deps LoginDeps) credentialFailure(ctx context.Context, email, code string) error {
	deps.inc(deps.Metrics.LoginFailure)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionLoginFailed,
		TargetEmail: email,
		Outcome:     audit.OutcomeFailure,
		Error:       code,
	})
	return deps.Errors.AuthenticationFailed
}

func (deps LoginDeps) backendFailure(ctx context.Context, stage, email string, err error) error {
	deps.logger().Warn("login backend failure", zap.String("stage", stage), zap.Error(err))
	deps.inc(deps.Metrics.LoginFailure)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionLoginFailed,
		TargetEmail: email,
		Outcome:     audit.OutcomeFailure,
		Error:       CodeBackendUnavailable,
		Metadata:    map[string]string{"stage": stage},
	})
	return fmt.Errorf("%w: %s", deps.Errors.ExternalService, stage)
}
