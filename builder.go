package goGuard

import (
	"errors"
	"time"

	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/cooldown"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/keyed"
	"github.com/MrEthical07/goGuard/internal/throttle"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	identities IdentityProvider
	factors    FactorProvider
	auditSink  AuditSink
	logger     *zap.Logger
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration. cfg is deep-copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis moves throttle, cooldown and session state into Redis so that
// several engine instances share it. Without it all state is process-local.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityProvider sets the required credential and identity collaborator.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.identities = p
	return b
}

// WithFactorProvider sets the second-factor collaborator. Without one every
// MFA operation returns ErrEngineNotReady.
func (b *Builder) WithFactorProvider(p FactorProvider) *Builder {
	b.factors = p
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the diagnostic logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for throttle, cooldown, session and audit
// timestamps. Token signing always uses the wall clock.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and starts the engine's background
// workers. The returned Engine must be closed.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.identities == nil {
		return nil, errors.New("identity provider required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Session.TTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		logger:     logger,
		now:        now,
		jwtManager: jm,
		identities: b.identities,
		factors:    b.factors,
		metrics:    NewMetrics(cfg.Metrics),
		enrolling:  keyed.New[struct{}](0),
	}

	throttleCfg := throttle.Config{
		MaxAttempts: cfg.Throttle.MaxAttempts,
		Window:      cfg.Throttle.Window,
	}

	// -------- ATTEMPT STATE AND SESSIONS --------
	if b.redis != nil {
		engine.throttle = throttle.NewRedis(b.redis, throttleCfg)
		engine.cooldown = cooldown.NewRedis(b.redis, cfg.Cooldown.Interval, now)
		engine.sessions = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
		engine.shared = true
	} else {
		window := throttle.New(throttleCfg, now)
		gate := cooldown.New(cfg.Cooldown.Interval, now)
		store := session.NewMemoryStore(now)
		engine.throttle = window
		engine.cooldown = gate
		engine.sessions = store
		for _, sweep := range []func(time.Time) int{window.Sweep, gate.Sweep, store.Sweep} {
			engine.sweepers = append(engine.sweepers, keyed.StartSweeper(cfg.Throttle.SweepInterval, now, sweep))
		}
	}

	// -------- AUDIT --------
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:      cfg.Audit.Enabled,
		BufferSize:   cfg.Audit.BufferSize,
		DropIfFull:   cfg.Audit.DropIfFull,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, b.auditSink, audit.Options{
		Logger: logger,
		OnDrop: func() { engine.metricInc(MetricAuditDropped) },
	})

	engine.flows = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}
