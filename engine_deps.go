package goGuard

import (
	"context"
	"time"

	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/keyed"
)

// providerCall bounds one collaborator call by Provider.Timeout and records
// its latency. The returned func must be called when the call returns.
func (e *Engine) providerCall(ctx context.Context) (context.Context, func()) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.config.Provider.Timeout)
	return ctx, func() {
		cancel()
		if e.metrics != nil {
			e.metrics.Observe(MetricProviderLatency, time.Since(start))
		}
	}
}

func flowErrors() flows.Errors {
	return flows.Errors{
		EngineNotReady:       ErrEngineNotReady,
		Validation:           ErrValidation,
		AuthenticationFailed: ErrAuthenticationFailed,
		ExternalService:      ErrExternalService,
		IdentityNotFound:     ErrIdentityNotFound,
		IdentityExists:       ErrIdentityExists,
		MFACodeInvalid:       ErrMFACodeInvalid,
		MFAAlreadyEnrolled:   ErrMFAAlreadyEnrolled,
		MFANotPending:        ErrMFANotPending,
		MFANotEnrolled:       ErrMFANotEnrolled,
		FactorNotFound:       ErrFactorNotFound,
		SessionInvalid:       ErrSessionInvalid,
		RateLimited: func(retryAfter time.Duration) error {
			return &RateLimitError{RetryAfter: retryAfter}
		},
		CooldownActive: func(wait time.Duration) error {
			return &CooldownError{Wait: wait}
		},
		Denied: func(reason string) error {
			return &DenyError{Reason: reason}
		},
	}
}

func (e *Engine) flowDeps() flows.Deps {
	hooks := flows.Hooks{
		EmitAudit: e.emitAudit,
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		Logger:    e.logger,
		Errors:    flowErrors(),
	}
	limits := flows.Limits{
		MaxEmailLength:    e.config.Validation.MaxEmailLength,
		MinPasswordLength: e.config.Validation.MinPasswordLength,
		MaxPasswordLength: e.config.Validation.MaxPasswordLength,
		MaxNameLength:     e.config.Validation.MaxNameLength,
		CodeDigits:        e.config.MFA.CodeDigits,
	}

	validate := flows.ValidateDeps{
		Hooks:        hooks,
		ParseToken:   e.jwtManager.Parse,
		SessionStore: e.sessions,
	}

	deps := flows.Deps{
		Login: flows.LoginDeps{
			Hooks:  hooks,
			Limits: limits,
			Metrics: flows.LoginMetrics{
				LoginSuccess:     int(MetricLoginSuccess),
				LoginFailure:     int(MetricLoginFailure),
				LoginRateLimited: int(MetricLoginRateLimited),
				LoginCooldown:    int(MetricLoginCooldown),
				LoginInvalid:     int(MetricLoginInvalid),
				SessionCreated:   int(MetricSessionCreated),
			},
			OriginFromContext: clientIPFromContext,
			CheckThrottle:     e.throttle.Check,
			CheckCooldown:     e.cooldown.Check,
			VerifyCredentials: e.verifyCredentials,
			IssueSession:      e.issueSession,
		},
		Signup: flows.SignupDeps{
			Hooks:  hooks,
			Limits: limits,
			Metrics: flows.SignupMetrics{
				SignupSuccess:   int(MetricSignupSuccess),
				SignupFailure:   int(MetricSignupFailure),
				ProfileDeferred: int(MetricProfileDeferred),
				SessionCreated:  int(MetricSessionCreated),
			},
			AllowedRoles:   e.config.Signup.AllowedRoles,
			DefaultRole:    e.config.Signup.DefaultRole,
			CreateIdentity: e.createIdentity,
			UpsertProfile:  e.upsertProfile,
			IssueSession:   e.issueSession,
		},
		Admin: flows.AdminDeps{
			Hooks:  hooks,
			Limits: limits,
			Metrics: flows.AdminMetrics{
				AdminDenied:     int(MetricAdminDenied),
				IdentityCreated: int(MetricIdentityCreated),
				IdentityUpdated: int(MetricIdentityUpdated),
				IdentityDeleted: int(MetricIdentityDeleted),
				PasswordReset:   int(MetricPasswordReset),
			},
			GetIdentity:    e.getIdentity,
			ListIdentities: e.listIdentities,
			CreateIdentity: e.createIdentity,
			UpdateIdentity: e.updateIdentity,
			DeleteIdentity: e.deleteIdentity,
			SetPassword:    e.setPassword,
			RevokeSessions: e.revokeSessions,
		},
		Validate: validate,
		Logout: flows.LogoutDeps{
			Validate: validate,
			Metrics:  flows.LogoutMetrics{Logout: int(MetricLogout)},
		},
	}

	if e.factors != nil {
		deps.MFA = flows.MFADeps{
			Hooks:  hooks,
			Limits: limits,
			Metrics: flows.MFAMetrics{
				MFAEnrolled:     int(MetricMFAEnrolled),
				MFAVerified:     int(MetricMFAVerified),
				MFAVerifyFailed: int(MetricMFAVerifyFailed),
				MFAUnenrolled:   int(MetricMFAUnenrolled),
			},
			ListFactors:    e.listFactors,
			EnrollFactor:   e.enrollFactor,
			VerifyFactor:   e.verifyFactor,
			UnenrollFactor: e.unenrollFactor,

			ClaimEnrollment: e.claimEnrollment,
		}
	} else {
		deps.MFA = flows.MFADeps{Hooks: hooks}
	}

	return deps
}

/*
====================================
IDENTITY PROVIDER ADAPTERS
====================================
*/

func (e *Engine) verifyCredentials(ctx context.Context, email, password string) (flows.IdentityRecord, error) {
	ctx, done := e.providerCall(ctx)
	defer done()
	ident, err := e.identities.VerifyCredentials(ctx, email, password)
	if err != nil {
		return flows.IdentityRecord{}, err
	}
	return recordFromIdentity(ident), nil
}

func (e *Engine) getIdentity(ctx context.Context, id string) (flows.IdentityRecord, error) {
	ctx, done := e.providerCall(ctx)
	defer done()
	ident, err := e.identities.GetIdentity(ctx, id)
	if err != nil {
		return flows.IdentityRecord{}, err
	}
	return recordFromIdentity(ident), nil
}

func (e *Engine) listIdentities(ctx context.Context) ([]flows.IdentityRecord, error) {
	ctx, done := e.providerCall(ctx)
	defer done()
	list, err := e.identities.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	return recordsFromIdentities(list), nil
}

func (e *Engine) createIdentity(ctx context.Context, in flows.NewIdentityRecord) (flows.IdentityRecord, error) {
	ctx, done := e.providerCall(ctx)
	defer done()
	ident, err := e.identities.CreateIdentity(ctx, NewIdentity{
		Email:       in.Email,
		Password:    in.Password,
		DisplayName: in.DisplayName,
		Role:        in.Role,
	})
	if err != nil {
		return flows.IdentityRecord{}, err
	}
	return recordFromIdentity(ident), nil
}

func (e *Engine) updateIdentity(ctx context.Context, id string, patch flows.IdentityPatch) (flows.IdentityRecord, error) {
	ctx, done := e.providerCall(ctx)
	defer done()
	ident, err := e.identities.UpdateIdentity(ctx, id, IdentityUpdate{
		Email:       patch.Email,
		DisplayName: patch.DisplayName,
		Role:        patch.Role,
		Active:      patch.Active,
	})
	if err != nil {
		return flows.IdentityRecord{}, err
	}
	return recordFromIdentity(ident), nil
}

func (e *Engine) deleteIdentity(ctx context.Context, id string) error {
	ctx, done := e.providerCall(ctx)
	defer done()
	return e.identities.DeleteIdentity(ctx, id)
}

func (e *Engine) setPassword(ctx context.Context, id, password string) error {
	ctx, done := e.providerCall(ctx)
	defer done()
	return e.identities.SetPassword(ctx, id, password)
}

func (e *Engine) upsertProfile(ctx context.Context, r flows.IdentityRecord) error {
	ctx, done := e.providerCall(ctx)
	defer done()
	return e.identities.UpsertProfile(ctx, Profile{
		IdentityID: r.ID,
		Email:      r.Email,
		FullName:   r.DisplayName,
		Role:       r.Role,
	})
}

/*
====================================
FACTOR PROVIDER ADAPTERS
====================================
*/

func (e *Engine) listFactors(ctx context.Context, ownerID string) ([]flows.Factor, error) {
	ctx, done := e.providerCall(ctx)
	defer done()
	return e.factors.ListFactors(ctx, ownerID)
}

func (e *Engine) enrollFactor(ctx context.Context, ownerID, accountName string) (flows.Enrollment, error) {
	ctx, done := e.providerCall(ctx)
	defer done()
	return e.factors.EnrollFactor(ctx, ownerID, accountName)
}

// claimEnrollment admits one in-flight enrollment per owner on this engine.
func (e *Engine) claimEnrollment(ownerID string) (func(), bool) {
	claimed := false
	e.enrolling.Update(ownerID, func(cur keyed.Entry[struct{}], ok bool) (keyed.Entry[struct{}], bool) {
		if ok {
			return cur, true
		}
		claimed = true
		return keyed.Entry[struct{}]{}, true
	})
	if !claimed {
		return nil, false
	}
	return func() { e.enrolling.Delete(ownerID) }, true
}

func (e *Engine) verifyFactor(ctx context.Context, ownerID, factorID, code string) (bool, error) {
	ctx, done := e.providerCall(ctx)
	defer done()
	return e.factors.VerifyFactor(ctx, ownerID, factorID, code)
}

func (e *Engine) unenrollFactor(ctx context.Context, ownerID, factorID string) error {
	ctx, done := e.providerCall(ctx)
	defer done()
	return e.factors.UnenrollFactor(ctx, ownerID, factorID)
}
