package goGuard

import (
	"testing"
	"time"

	"github.com/MrEthical07/goGuard/policy"
)

func TestDefaultConfigNeedsOnlyKeyMaterial(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected defaults without a key to be rejected")
	}

	cfg = testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "throttle attempts zero",
			mutate:    func(c *Config) { c.Throttle.MaxAttempts = 0 },
			wantValid: false,
		},
		{
			name:      "throttle window zero",
			mutate:    func(c *Config) { c.Throttle.Window = 0 },
			wantValid: false,
		},
		{
			name:      "sweep disabled",
			mutate:    func(c *Config) { c.Throttle.SweepInterval = 0 },
			wantValid: true,
		},
		{
			name:      "cooldown zero",
			mutate:    func(c *Config) { c.Cooldown.Interval = 0 },
			wantValid: false,
		},
		{
			name:      "email length too small",
			mutate:    func(c *Config) { c.Validation.MaxEmailLength = 2 },
			wantValid: false,
		},
		{
			name: "password bounds inverted",
			mutate: func(c *Config) {
				c.Validation.MinPasswordLength = 20
				c.Validation.MaxPasswordLength = 10
			},
			wantValid: false,
		},
		{
			name: "audit buffer zero while enabled",
			mutate: func(c *Config) {
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "audit buffer zero while disabled",
			mutate: func(c *Config) {
				c.Audit.Enabled = false
				c.Audit.BufferSize = 0
			},
			wantValid: true,
		},
		{
			name: "histograms without metrics",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
		{
			name:      "session ttl zero",
			mutate:    func(c *Config) { c.Session.TTL = 0 },
			wantValid: false,
		},
		{
			name:      "cookie name blank",
			mutate:    func(c *Config) { c.Session.CookieName = "" },
			wantValid: false,
		},
		{
			name:      "hs256 short key",
			mutate:    func(c *Config) { c.JWT.PrivateKey = []byte("short") },
			wantValid: false,
		},
		{
			name:      "unknown signing method",
			mutate:    func(c *Config) { c.JWT.SigningMethod = "rs256" },
			wantValid: false,
		},
		{
			name:      "jwt leeway valid",
			mutate:    func(c *Config) { c.JWT.Leeway = 45 * time.Second },
			wantValid: true,
		},
		{
			name:      "jwt leeway invalid",
			mutate:    func(c *Config) { c.JWT.Leeway = 3 * time.Minute },
			wantValid: false,
		},
		{
			name:      "provider timeout zero",
			mutate:    func(c *Config) { c.Provider.Timeout = 0 },
			wantValid: false,
		},
		{
			name:      "eight digit codes",
			mutate:    func(c *Config) { c.MFA.CodeDigits = 8 },
			wantValid: true,
		},
		{
			name:      "seven digit codes",
			mutate:    func(c *Config) { c.MFA.CodeDigits = 7 },
			wantValid: false,
		},
		{
			name: "signup allows admin",
			mutate: func(c *Config) {
				c.Signup.AllowedRoles = append(c.Signup.AllowedRoles, policy.RoleAdmin)
			},
			wantValid: false,
		},
		{
			name: "signup default not allowed",
			mutate: func(c *Config) {
				c.Signup.AllowedRoles = []policy.Role{policy.RoleSales}
				c.Signup.DefaultRole = policy.RoleClient
			},
			wantValid: false,
		},
		{
			name:      "signup empty",
			mutate:    func(c *Config) { c.Signup.AllowedRoles = nil },
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigDetachesSlices(t *testing.T) {
	cfg := testConfig()
	out := cloneConfig(cfg)

	cfg.JWT.PrivateKey[0] = 'X'
	cfg.Signup.AllowedRoles[0] = policy.RoleOwner

	if out.JWT.PrivateKey[0] == 'X' {
		t.Fatal("clone shares key bytes")
	}
	if out.Signup.AllowedRoles[0] == policy.RoleOwner {
		t.Fatal("clone shares allowed roles")
	}
}
