package goGuard

import (
	"time"

	"github.com/MrEthical07/goGuard/policy"
)

// SecurityReport summarizes the engine's effective protections for startup
// logs and health endpoints. It contains no key material.
type SecurityReport struct {
	SigningAlgorithm   string
	SessionTTL         time.Duration
	SharedAttemptState bool
	ThrottleAttempts   int
	ThrottleWindow     time.Duration
	CooldownInterval   time.Duration
	AuditEnabled       bool
	AuditDropIfFull    bool
	MFAAvailable       bool
	SecureCookie       bool
	SignupRoles        []string
	LintCodes          []string
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	roles := make([]string, 0, len(e.config.Signup.AllowedRoles))
	for _, r := range e.config.Signup.AllowedRoles {
		roles = append(roles, r.String())
	}

	return SecurityReport{
		SigningAlgorithm:   e.config.JWT.SigningMethod,
		SessionTTL:         e.config.Session.TTL,
		SharedAttemptState: e.shared,
		ThrottleAttempts:   e.config.Throttle.MaxAttempts,
		ThrottleWindow:     e.config.Throttle.Window,
		CooldownInterval:   e.config.Cooldown.Interval,
		AuditEnabled:       e.config.Audit.Enabled,
		AuditDropIfFull:    e.config.Audit.DropIfFull,
		MFAAvailable:       e.factors != nil,
		SecureCookie:       e.config.Session.SecureCookie,
		SignupRoles:        roles,
		LintCodes:          e.config.Lint().Codes(),
	}
}

// SignupRoles returns the roles open to self-registration.
func (e *Engine) SignupRoles() []policy.Role {
	if e == nil {
		return nil
	}
	return append([]policy.Role(nil), e.config.Signup.AllowedRoles...)
}
