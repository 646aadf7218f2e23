package audit

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Actions recorded by the engine.
const (
	ActionLoginSuccess          = "login_success"
	ActionLoginFailed           = "login_failed"
	ActionLoginRateLimited      = "login_rate_limited"
	ActionLoginCooldown         = "login_cooldown"
	ActionSignupSuccess         = "signup_success"
	ActionSignupFailed          = "signup_failed"
	ActionSignupProfileDeferred = "signup_profile_deferred"
	ActionIdentityCreated       = "identity_created"
	ActionIdentityUpdated       = "identity_updated"
	ActionIdentityDeleted       = "identity_deleted"
	ActionIdentityPasswordReset = "identity_password_reset"
	ActionAdminDenied           = "admin_denied"
	ActionMFAEnrolled           = "mfa_enrolled"
	ActionMFAVerified           = "mfa_verified"
	ActionMFAVerifyFailed       = "mfa_verify_failed"
	ActionMFAUnenrolled         = "mfa_unenrolled"
	ActionLogout                = "logout"
)

// Outcome classifies an event.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeDenied  Outcome = "denied"
)

// Event is the canonical audit event model used by internal dispatching and root APIs.
type Event struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Action      string            `json:"action"`
	ActorID     string            `json:"actor_id,omitempty"`
	TargetEmail string            `json:"target_email,omitempty"`
	IP          string            `json:"ip,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	Outcome     Outcome           `json:"outcome"`
	Error       string            `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewID returns a lexically sortable event id for t.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
