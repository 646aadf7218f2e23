package goGuard

import (
	"errors"
	"time"

	"github.com/MrEthical07/goGuard/policy"
)

// Config is the full engine configuration. Start from [DefaultConfig] and
// override fields; [Builder.Build] validates the result.
type Config struct {
	Throttle   ThrottleConfig
	Cooldown   CooldownConfig
	Validation ValidationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
	Session    SessionConfig
	JWT        JWTConfig
	Provider   ProviderConfig
	MFA        MFAConfig
	Signup     SignupConfig
}

/*
====================================
ATTEMPT CONTROL
====================================
*/

// ThrottleConfig bounds login attempts per network origin.
type ThrottleConfig struct {
	MaxAttempts int
	Window      time.Duration
	// SweepInterval is how often idle entries are dropped from every
	// in-process store. Zero disables sweeping.
	SweepInterval time.Duration
}

// CooldownConfig spaces login attempts per identity.
type CooldownConfig struct {
	Interval time.Duration
}

// ValidationConfig bounds caller-supplied credentials.
type ValidationConfig struct {
	MaxEmailLength    int
	MinPasswordLength int
	MaxPasswordLength int
	MaxNameLength     int
}

/*
====================================
AUDIT AND METRICS
====================================
*/

// AuditConfig controls the asynchronous audit queue.
type AuditConfig struct {
	Enabled      bool
	BufferSize   int
	DropIfFull   bool
	WriteTimeout time.Duration
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SESSIONS
====================================
*/

// SessionConfig controls session lifetime and storage.
type SessionConfig struct {
	TTL          time.Duration
	RedisPrefix  string
	CookieName   string
	SecureCookie bool
}

// JWTConfig holds session token key material. SigningMethod is "ed25519"
// (default) or "hs256".
type JWTConfig struct {
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
COLLABORATORS
====================================
*/

// ProviderConfig bounds every call into the identity and factor providers.
type ProviderConfig struct {
	Timeout time.Duration
}

// MFAConfig controls second-factor code checks.
type MFAConfig struct {
	// CodeDigits is 6. 8 is accepted for authenticators that issue longer
	// codes and is reported by Lint.
	CodeDigits int
}

// SignupConfig limits self-registration.
type SignupConfig struct {
	AllowedRoles []policy.Role
	DefaultRole  policy.Role
}

// DefaultConfig returns the production defaults. JWT key material must still
// be supplied.
func DefaultConfig() Config {
	return Config{
		Throttle: ThrottleConfig{
			MaxAttempts:   5,
			Window:        time.Minute,
			SweepInterval: time.Minute,
		},
		Cooldown: CooldownConfig{
			Interval: 2 * time.Second,
		},
		Validation: ValidationConfig{
			MaxEmailLength:    255,
			MinPasswordLength: 6,
			MaxPasswordLength: 128,
			MaxNameLength:     255,
		},
		Audit: AuditConfig{
			Enabled:      true,
			BufferSize:   1024,
			DropIfFull:   true,
			WriteTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Session: SessionConfig{
			TTL:          12 * time.Hour,
			RedisPrefix:  "gg",
			CookieName:   "goguard_session",
			SecureCookie: true,
		},
		JWT: JWTConfig{
			SigningMethod: "ed25519",
			Issuer:        "goguard",
		},
		Provider: ProviderConfig{
			Timeout: 5 * time.Second,
		},
		MFA: MFAConfig{
			CodeDigits: 6,
		},
		Signup: SignupConfig{
			AllowedRoles: []policy.Role{
				policy.RoleClient,
				policy.RoleSales,
				policy.RoleAccountant,
				policy.RoleWarehouse,
				policy.RoleManager,
			},
			DefaultRole: policy.RoleClient,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	if cfg.Signup.AllowedRoles != nil {
		out.Signup.AllowedRoles = append([]policy.Role(nil), cfg.Signup.AllowedRoles...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	// Throttle / cooldown
	if c.Throttle.MaxAttempts <= 0 {
		return errors.New("Throttle MaxAttempts must be > 0")
	}
	if c.Throttle.Window <= 0 {
		return errors.New("Throttle Window must be > 0")
	}
	if c.Throttle.SweepInterval < 0 {
		return errors.New("Throttle SweepInterval must be >= 0")
	}
	if c.Cooldown.Interval <= 0 {
		return errors.New("Cooldown Interval must be > 0")
	}

	// Validation
	if c.Validation.MaxEmailLength < 3 || c.Validation.MaxEmailLength > 320 {
		return errors.New("Validation MaxEmailLength must be in [3,320]")
	}
	if c.Validation.MinPasswordLength <= 0 {
		return errors.New("Validation MinPasswordLength must be > 0")
	}
	if c.Validation.MaxPasswordLength < c.Validation.MinPasswordLength {
		return errors.New("Validation MaxPasswordLength must be >= MinPasswordLength")
	}
	if c.Validation.MaxNameLength <= 0 {
		return errors.New("Validation MaxNameLength must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Audit.WriteTimeout < 0 {
		return errors.New("Audit WriteTimeout must be >= 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must be set")
	}
	if c.Session.CookieName == "" {
		return errors.New("Session CookieName must be set")
	}

	// JWT
	switch c.JWT.SigningMethod {
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
	case "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be in [0,2m]")
	}

	if c.Provider.Timeout <= 0 {
		return errors.New("Provider Timeout must be > 0")
	}

	if c.MFA.CodeDigits != 6 && c.MFA.CodeDigits != 8 {
		return errors.New("MFA CodeDigits must be 6 or 8")
	}

	// Signup
	if len(c.Signup.AllowedRoles) == 0 {
		return errors.New("Signup AllowedRoles must not be empty")
	}
	defaultAllowed := false
	for _, r := range c.Signup.AllowedRoles {
		if !r.Valid() {
			return errors.New("Signup AllowedRoles contains an unknown role")
		}
		if r.IsAdministrator() {
			return errors.New("Signup AllowedRoles must not include admin or owner")
		}
		if r == c.Signup.DefaultRole {
			defaultAllowed = true
		}
	}
	if !defaultAllowed {
		return errors.New("Signup DefaultRole must be one of AllowedRoles")
	}

	return nil
}
