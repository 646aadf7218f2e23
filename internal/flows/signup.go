package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/policy"
	"go.uber.org/zap"
)

// SignupRequest is the raw self-registration input.
type SignupRequest struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// SignupMetrics carries metric IDs needed by the signup flow.
type SignupMetrics struct {
	SignupSuccess   int
	SignupFailure   int
	ProfileDeferred int
	SessionCreated  int
}

// SignupDeps captures signup dependencies.
type SignupDeps struct {
	Hooks
	Limits       Limits
	Metrics      SignupMetrics
	AllowedRoles []policy.Role
	DefaultRole  policy.Role

	CreateIdentity func(context.Context, NewIdentityRecord) (IdentityRecord, error)
	UpsertProfile  func(context.Context, IdentityRecord) error
	IssueSession   func(context.Context, IdentityRecord) (*SessionGrant, error)
}

func (deps SignupDeps) roleAllowed(r policy.Role) bool {
	for _, allowed := range deps.AllowedRoles {
		if allowed == r {
			return true
		}
	}
	return false
}

// RunSignup creates an identity, repairs its profile on a best-effort basis
// and establishes a session.
func RunSignup(ctx context.Context, req SignupRequest, deps SignupDeps) (*AuthResult, error) {
	if deps.CreateIdentity == nil || deps.IssueSession == nil {
		return nil, deps.Errors.EngineNotReady
	}
	limits := deps.Limits.withDefaults()

	email, ok := NormalizeEmail(req.Email, limits.MaxEmailLength)
	if !ok || !ValidPassword(req.Password, limits) {
		return nil, deps.Errors.Validation
	}
	name, ok := NormalizeName(req.FullName, limits.MaxNameLength)
	if !ok {
		return nil, deps.Errors.Validation
	}

	role := deps.DefaultRole
	if req.Role != "" {
		parsed, err := policy.ParseRole(req.Role)
		if err != nil {
			return nil, deps.Errors.Validation
		}
		role = parsed
	}
	if !role.Valid() || !deps.roleAllowed(role) {
		deps.inc(deps.Metrics.SignupFailure)
		deps.emit(ctx, audit.Event{
			Action:      audit.ActionSignupFailed,
			TargetEmail: email,
			Outcome:     audit.OutcomeDenied,
			Error:       CodeRoleNotAllowed,
			Metadata:    map[string]string{"role": role.String()},
		})
		return nil, deps.Errors.Validation
	}

	ident, err := deps.CreateIdentity(ctx, NewIdentityRecord{
		Email:       email,
		Password:    req.Password,
		DisplayName: name,
		Role:        role,
	})
	if err != nil {
		mapped := deps.providerError("create_identity", err)
		code := CodeBackendUnavailable
		if errors.Is(mapped, deps.Errors.IdentityExists) {
			code = CodeDuplicate
		}
		deps.inc(deps.Metrics.SignupFailure)
		deps.emit(ctx, audit.Event{
			Action:      audit.ActionSignupFailed,
			TargetEmail: email,
			Outcome:     audit.OutcomeFailure,
			Error:       code,
		})
		return nil, mapped
	}

	RunEnsureProfile(ctx, ident, deps)

	deps.inc(deps.Metrics.SignupSuccess)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionSignupSuccess,
		ActorID:     ident.ID,
		TargetEmail: email,
		Outcome:     audit.OutcomeSuccess,
		Metadata:    map[string]string{"role": role.String()},
	})

	grant, err := deps.IssueSession(ctx, ident)
	if err != nil {
		deps.logger().Warn("signup session creation failed", zap.String("user_id", ident.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: session", deps.Errors.ExternalService)
	}
	deps.inc(deps.Metrics.SessionCreated)

	return &AuthResult{Identity: ident, Grant: *grant}, nil
}

// RunEnsureProfile upserts the profile for ident. Failure is logged and
// audited but never returned; the upsert is idempotent and is retried from
// later authenticated requests. It reports whether the write succeeded.
func RunEnsureProfile(ctx context.Context, ident IdentityRecord, deps SignupDeps) bool {
	if deps.UpsertProfile == nil {
		return true
	}
	err := deps.UpsertProfile(ctx, ident)
	if err == nil {
		return true
	}

	deps.logger().Warn("profile upsert deferred", zap.String("user_id", ident.ID), zap.Error(err))
	deps.inc(deps.Metrics.ProfileDeferred)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionSignupProfileDeferred,
		ActorID:     ident.ID,
		TargetEmail: ident.Email,
		Outcome:     audit.OutcomeFailure,
		Error:       CodeProfileWriteFailure,
	})
	return false
}
