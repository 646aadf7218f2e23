package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGuard/internal/audit"
	"go.uber.org/zap"
)

// Audit error codes. They classify failures in audit events and never reach
// the caller.
const (
	CodeInvalidCredentials  = "invalid_credentials"
	CodeInactive            = "inactive"
	CodeBackendUnavailable  = "backend_unavailable"
	CodeDuplicate           = "duplicate"
	CodeRoleNotAllowed      = "role_not_allowed"
	CodeForbidden           = "forbidden"
	CodeCodeInvalid         = "code_invalid"
	CodeSessionFailed       = "session_creation_failed"
	CodeProfileWriteFailure = "profile_write_failed"
)

// UnknownOrigin is the throttle key used when no client address is known.
const UnknownOrigin = "unknown"

// Errors carries host-level sentinel errors and constructors used by flows.
type Errors struct {
	EngineNotReady       error
	Validation           error
	AuthenticationFailed error
	ExternalService      error
	IdentityNotFound     error
	IdentityExists       error
	MFACodeInvalid       error
	MFAAlreadyEnrolled   error
	MFANotPending        error
	MFANotEnrolled       error
	FactorNotFound       error
	SessionInvalid       error

	RateLimited    func(retryAfter time.Duration) error
	CooldownActive func(wait time.Duration) error
	Denied         func(reason string) error
}

// Hooks groups the side channels every flow reports through.
type Hooks struct {
	EmitAudit func(context.Context, audit.Event)
	MetricInc func(int)
	Logger    *zap.Logger
	Errors    Errors
}

func (h Hooks) emit(ctx context.Context, event audit.Event) {
	if h.EmitAudit != nil {
		h.EmitAudit(ctx, event)
	}
}

func (h Hooks) inc(id int) {
	if h.MetricInc != nil {
		h.MetricInc(id)
	}
}

func (h Hooks) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// providerError maps a collaborator error onto a host sentinel. Anything not
// recognized is logged with detail and surfaced as ExternalService.
func (h Hooks) providerError(op string, err error) error {
	switch {
	case h.Errors.IdentityNotFound != nil && errors.Is(err, h.Errors.IdentityNotFound):
		return h.Errors.IdentityNotFound
	case h.Errors.IdentityExists != nil && errors.Is(err, h.Errors.IdentityExists):
		return h.Errors.IdentityExists
	case h.Errors.Validation != nil && errors.Is(err, h.Errors.Validation):
		return h.Errors.Validation
	}
	h.logger().Warn("collaborator call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s", h.Errors.ExternalService, op)
}
