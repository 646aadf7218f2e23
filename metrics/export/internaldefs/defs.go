package internaldefs

import (
	goGuard "github.com/MrEthical07/goGuard"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goGuard.MetricLoginSuccess, Name: "goguard_login_success_total", Help: "Successful logins."},
	{ID: goGuard.MetricLoginFailure, Name: "goguard_login_failure_total", Help: "Logins rejected for bad credentials or inactive identities."},
	{ID: goGuard.MetricLoginRateLimited, Name: "goguard_login_rate_limited_total", Help: "Logins rejected by the per-origin throttle."},
	{ID: goGuard.MetricLoginCooldown, Name: "goguard_login_cooldown_total", Help: "Logins rejected by the per-identity cooldown."},
	{ID: goGuard.MetricLoginInvalid, Name: "goguard_login_invalid_total", Help: "Logins rejected for malformed input."},
	{ID: goGuard.MetricSessionCreated, Name: "goguard_session_created_total", Help: "Sessions issued."},
	{ID: goGuard.MetricSessionRevoked, Name: "goguard_session_revoked_total", Help: "Sessions revoked by administration."},
	{ID: goGuard.MetricLogout, Name: "goguard_logout_total", Help: "Sessions ended by logout."},
	{ID: goGuard.MetricSignupSuccess, Name: "goguard_signup_success_total", Help: "Completed self-registrations."},
	{ID: goGuard.MetricSignupFailure, Name: "goguard_signup_failure_total", Help: "Rejected self-registrations."},
	{ID: goGuard.MetricProfileDeferred, Name: "goguard_profile_deferred_total", Help: "Profile writes that failed and were left for repair."},
	{ID: goGuard.MetricAdminDenied, Name: "goguard_admin_denied_total", Help: "Administrative operations denied by policy."},
	{ID: goGuard.MetricIdentityCreated, Name: "goguard_identity_created_total", Help: "Identities created by administrators."},
	{ID: goGuard.MetricIdentityUpdated, Name: "goguard_identity_updated_total", Help: "Identities updated by administrators."},
	{ID: goGuard.MetricIdentityDeleted, Name: "goguard_identity_deleted_total", Help: "Identities deleted by administrators."},
	{ID: goGuard.MetricPasswordReset, Name: "goguard_password_reset_total", Help: "Passwords reset by administrators."},
	{ID: goGuard.MetricMFAEnrolled, Name: "goguard_mfa_enrolled_total", Help: "Second factors enrolled."},
	{ID: goGuard.MetricMFAVerified, Name: "goguard_mfa_verified_total", Help: "Second factors verified."},
	{ID: goGuard.MetricMFAVerifyFailed, Name: "goguard_mfa_verify_failed_total", Help: "Rejected second-factor codes."},
	{ID: goGuard.MetricMFAUnenrolled, Name: "goguard_mfa_unenrolled_total", Help: "Second factors removed."},
	{ID: goGuard.MetricAuditDropped, Name: "goguard_audit_dropped_total", Help: "Audit events dropped because the queue was full."},
}

var HistogramDefs = []HistogramDef{
	{ID: goGuard.MetricProviderLatency, Name: "goguard_provider_latency_seconds", Help: "Latency of identity and factor provider calls."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds, matching
// the engine's fixed buckets. The eighth bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the eight engine buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
