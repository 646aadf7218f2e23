package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/policy"
	"github.com/joho/godotenv"
)

// Environment overrides. Secrets are only read from the environment.
const (
	envJWTSecret      = "GOGUARD_JWT_SECRET"
	envJWTKeyFile     = "GOGUARD_JWT_KEY_FILE"
	envRedisAddr      = "GOGUARD_REDIS_ADDR"
	envAuditDSN       = "GOGUARD_AUDIT_DSN"
	envOwnerEmail     = "GOGUARD_OWNER_EMAIL"
	envOwnerPassword  = "GOGUARD_OWNER_PASSWORD"
	envListenAddr     = "GOGUARD_ADDR"
	envDevelopmentLog = "GOGUARD_DEV"
)

// fileConfig is the TOML layout read by serve.
type fileConfig struct {
	Server   serverSection   `toml:"server"`
	Throttle throttleSection `toml:"throttle"`
	Cooldown cooldownSection `toml:"cooldown"`
	Session  sessionSection  `toml:"session"`
	JWT      jwtSection      `toml:"jwt"`
	Audit    auditSection    `toml:"audit"`
	Metrics  metricsSection  `toml:"metrics"`
	Provider providerSection `toml:"provider"`
	MFA      mfaSection      `toml:"mfa"`
	Signup   signupSection   `toml:"signup"`
	Redis    redisSection    `toml:"redis"`

	// Filled from the environment.
	jwtSecret     []byte
	jwtKey        []byte
	auditDSN      string
	ownerEmail    string
	ownerPassword string
}

type serverSection struct {
	Addr            string        `toml:"addr"`
	TrustProxy      bool          `toml:"trust_proxy"`
	Development     bool          `toml:"development"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type throttleSection struct {
	MaxAttempts   int           `toml:"max_attempts"`
	Window        time.Duration `toml:"window"`
	SweepInterval time.Duration `toml:"sweep_interval"`
}

type cooldownSection struct {
	Interval time.Duration `toml:"interval"`
}

type sessionSection struct {
	TTL          time.Duration `toml:"ttl"`
	CookieName   string        `toml:"cookie_name"`
	SecureCookie *bool         `toml:"secure_cookie"`
	RedisPrefix  string        `toml:"redis_prefix"`
}

type jwtSection struct {
	SigningMethod string        `toml:"signing_method"`
	Issuer        string        `toml:"issuer"`
	Leeway        time.Duration `toml:"leeway"`
}

type auditSection struct {
	Enabled    *bool  `toml:"enabled"`
	BufferSize int    `toml:"buffer_size"`
	DropIfFull *bool  `toml:"drop_if_full"`
	Sink       string `toml:"sink"`
	Dialect    string `toml:"dialect"`
}

type metricsSection struct {
	Enabled           *bool `toml:"enabled"`
	LatencyHistograms bool  `toml:"latency_histograms"`
}

type providerSection struct {
	Timeout time.Duration `toml:"timeout"`
}

type mfaSection struct {
	Issuer     string `toml:"issuer"`
	CodeDigits int    `toml:"code_digits"`
}

type signupSection struct {
	AllowedRoles []policy.Role `toml:"allowed_roles"`
	DefaultRole  policy.Role   `toml:"default_role"`
}

type redisSection struct {
	Addr string `toml:"addr"`
	DB   int    `toml:"db"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Server: serverSection{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Audit: auditSection{Sink: "log", Dialect: string(goGuard.AuditDialectSQLite)},
		MFA:   mfaSection{Issuer: "goGuard"},
	}
}

// loadConfig reads envFile (missing is fine), then the TOML file at path
// (empty skips it), then environment overrides.
func loadConfig(path, envFile string) (fileConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fileConfig{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	fc := defaultFileConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, &fc)
		if err != nil {
			return fileConfig{}, fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return fileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
	}

	fc.applyEnv()
	if fc.jwtKey == nil {
		if file := os.Getenv(envJWTKeyFile); file != "" {
			key, err := os.ReadFile(file)
			if err != nil {
				return fileConfig{}, fmt.Errorf("read jwt key: %w", err)
			}
			fc.jwtKey = key
		}
	}
	return fc, nil
}

func (fc *fileConfig) applyEnv() {
	if v := os.Getenv(envJWTSecret); v != "" {
		fc.jwtSecret = []byte(v)
	}
	if v := os.Getenv(envRedisAddr); v != "" {
		fc.Redis.Addr = v
	}
	if v := os.Getenv(envAuditDSN); v != "" {
		fc.auditDSN = v
	}
	if v := os.Getenv(envListenAddr); v != "" {
		fc.Server.Addr = v
	}
	if v := os.Getenv(envDevelopmentLog); v == "1" || strings.EqualFold(v, "true") {
		fc.Server.Development = true
	}
	fc.ownerEmail = os.Getenv(envOwnerEmail)
	fc.ownerPassword = os.Getenv(envOwnerPassword)
}

// engineConfig overlays the file settings on DefaultConfig. Zero values keep
// the defaults.
func (fc fileConfig) engineConfig() goGuard.Config {
	cfg := goGuard.DefaultConfig()

	if fc.Throttle.MaxAttempts > 0 {
		cfg.Throttle.MaxAttempts = fc.Throttle.MaxAttempts
	}
	if fc.Throttle.Window > 0 {
		cfg.Throttle.Window = fc.Throttle.Window
	}
	if fc.Throttle.SweepInterval > 0 {
		cfg.Throttle.SweepInterval = fc.Throttle.SweepInterval
	}
	if fc.Cooldown.Interval > 0 {
		cfg.Cooldown.Interval = fc.Cooldown.Interval
	}

	if fc.Session.TTL > 0 {
		cfg.Session.TTL = fc.Session.TTL
	}
	if fc.Session.CookieName != "" {
		cfg.Session.CookieName = fc.Session.CookieName
	}
	if fc.Session.RedisPrefix != "" {
		cfg.Session.RedisPrefix = fc.Session.RedisPrefix
	}
	if fc.Session.SecureCookie != nil {
		cfg.Session.SecureCookie = *fc.Session.SecureCookie
	}

	if fc.JWT.SigningMethod != "" {
		cfg.JWT.SigningMethod = strings.ToLower(fc.JWT.SigningMethod)
	}
	if fc.JWT.Issuer != "" {
		cfg.JWT.Issuer = fc.JWT.Issuer
	}
	if fc.JWT.Leeway > 0 {
		cfg.JWT.Leeway = fc.JWT.Leeway
	}
	switch cfg.JWT.SigningMethod {
	case "hs256":
		cfg.JWT.PrivateKey = fc.jwtSecret
	default:
		cfg.JWT.PrivateKey = fc.jwtKey
	}

	if fc.Audit.Enabled != nil {
		cfg.Audit.Enabled = *fc.Audit.Enabled
	}
	if fc.Audit.BufferSize > 0 {
		cfg.Audit.BufferSize = fc.Audit.BufferSize
	}
	if fc.Audit.DropIfFull != nil {
		cfg.Audit.DropIfFull = *fc.Audit.DropIfFull
	}

	if fc.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *fc.Metrics.Enabled
	}
	cfg.Metrics.EnableLatencyHistograms = fc.Metrics.LatencyHistograms

	if fc.Provider.Timeout > 0 {
		cfg.Provider.Timeout = fc.Provider.Timeout
	}
	if fc.MFA.CodeDigits > 0 {
		cfg.MFA.CodeDigits = fc.MFA.CodeDigits
	}

	if len(fc.Signup.AllowedRoles) > 0 {
		cfg.Signup.AllowedRoles = fc.Signup.AllowedRoles
	}
	if fc.Signup.DefaultRole != policy.RoleUnknown {
		cfg.Signup.DefaultRole = fc.Signup.DefaultRole
	}
	return cfg
}
