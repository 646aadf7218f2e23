package goGuard

import (
	"errors"
	"strings"
	"time"
)

// LintSeverity ranks configuration warnings.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is one questionable but valid setting.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes lists the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity keeps warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins warnings at or above min into one error, or returns nil.
func (ws LintWarnings) AsError(min LintSeverity) error {
	hits := ws.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(hits))
	for _, w := range hits {
		msgs = append(msgs, w.Code+": "+w.Message)
	}
	return errors.New("config lint: " + strings.Join(msgs, "; "))
}

// Lint reports settings that pass Validate but weaken the deployment. It is
// advisory; Build does not call it.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Throttle.MaxAttempts > 20 {
		add("throttle_loose", LintWarn, "more than 20 login attempts per origin window")
	}
	if c.Cooldown.Interval < time.Second {
		add("cooldown_short", LintInfo, "per-identity cooldown below one second")
	}
	if c.JWT.Leeway > 30*time.Second {
		add("leeway_large", LintWarn, "JWT leeway above 30s")
	}
	if c.Session.TTL > 24*time.Hour {
		add("session_ttl_long", LintWarn, "sessions outlive one day")
	}
	if !c.Session.SecureCookie {
		add("cookie_insecure", LintHigh, "session cookie is sent over plain HTTP")
	}
	if c.JWT.SigningMethod == "hs256" {
		add("signing_hs256", LintInfo, "symmetric signing key must be shared by every verifier")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintWarn, "security events are not recorded")
	} else if !c.Audit.DropIfFull {
		add("audit_blocking", LintInfo, "a slow audit sink delays requests")
	}
	if c.MFA.CodeDigits != 6 {
		add("mfa_code_digits", LintInfo, "second-factor codes are not the standard 6 digits")
	}
	if c.Provider.Timeout > 30*time.Second {
		add("provider_timeout_long", LintWarn, "provider calls may hold requests for over 30s")
	}
	return ws
}
