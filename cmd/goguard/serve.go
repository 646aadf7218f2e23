package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/internal/httpapi"
	promexport "github.com/MrEthical07/goGuard/metrics/export/prometheus"
	"github.com/MrEthical07/goGuard/policy"
	"github.com/MrEthical07/goGuard/provider/memory"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func newServeCmd() *cobra.Command {
	var (
		configPath    string
		envFile       string
		allowInsecure bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `serve loads an optional .env file and a TOML config, builds the engine over
the in-memory identity store and listens until SIGINT or SIGTERM.

Secrets come from the environment: GOGUARD_JWT_SECRET (hs256) or
GOGUARD_JWT_KEY_FILE (ed25519 PEM), GOGUARD_REDIS_ADDR, GOGUARD_AUDIT_DSN,
GOGUARD_OWNER_EMAIL and GOGUARD_OWNER_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fc, err := loadConfig(configPath, envFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(fc.Server.Development)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, fc, logger, allowInsecure)
			if err != nil {
				logger.Error("startup failed", zap.Error(err))
				return err
			}
			defer a.Close()
			return a.run(ctx, fc.Server)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config; missing is fine")
	cmd.Flags().BoolVar(&allowInsecure, "allow-insecure", false, "start even when the config has HIGH severity lint warnings")
	return cmd
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// app owns everything serve builds so tests can drive it without a listener.
type app struct {
	engine  *goGuard.Engine
	store   *memory.Store
	handler http.Handler
	logger  *zap.Logger
	closers []func()
}

func newApp(ctx context.Context, fc fileConfig, logger *zap.Logger, allowInsecure bool) (*app, error) {
	a := &app{logger: logger}
	if err := a.init(ctx, fc, allowInsecure); err != nil {
		a.Close()
		return err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, fc fileConfig, allowInsecure bool) error {
	logger := a.logger
	cfg := fc.engineConfig()
	if cfg.JWT.SigningMethod == "ed25519" && len(cfg.JWT.PrivateKey) == 0 {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return fmt.Errorf("generate signing key: %w", err)
		}
		cfg.JWT.PrivateKey = priv
		logger.Warn("no signing key configured; using an ephemeral ed25519 key, sessions end on restart")
	}

	warnings := cfg.Lint()
	for _, w := range warnings {
		logger.Warn("config lint", zap.String("code", w.Code), zap.Stringer("severity", w.Severity), zap.String("message", w.Message))
	}
	if err := warnings.AsError(goGuard.LintHigh); err != nil && !allowInsecure {
		return fmt.Errorf("refusing to start: %w (pass --allow-insecure to override)", err)
	}

	var err error
	a.store, err = memory.New(memory.Options{Issuer: fc.MFA.Issuer, Digits: cfg.MFA.CodeDigits})
	if err != nil {
		return err
	}
	if err := a.bootstrapOwner(ctx, fc); err != nil {
		return err
	}

	sink, err := a.auditSink(ctx, fc)
	if err != nil {
		return err
	}

	b := goGuard.New().
		WithConfig(cfg).
		WithIdentityProvider(a.store).
		WithFactorProvider(a.store).
		WithAuditSink(sink).
		WithLogger(logger)

	if fc.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: fc.Redis.Addr, DB: fc.Redis.DB})
		a.closers = append(a.closers, func() { _ = client.Close() })
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", fc.Redis.Addr, err)
		}
		b = b.WithRedis(client)
	}

	a.engine, err = b.Build()
	if err != nil {
		return err
	}
	// Drain the audit queue before the sink's resources are released.
	a.closers = append(a.closers, a.engine.Close)

	report := a.engine.SecurityReport()
	logger.Info("engine ready",
		zap.String("signing", report.SigningAlgorithm),
		zap.Duration("session_ttl", report.SessionTTL),
		zap.Bool("shared_attempt_state", report.SharedAttemptState),
		zap.Int("throttle_attempts", report.ThrottleAttempts),
		zap.Duration("throttle_window", report.ThrottleWindow),
		zap.Duration("cooldown", report.CooldownInterval),
		zap.Bool("audit", report.AuditEnabled),
		zap.Bool("mfa", report.MFAAvailable),
		zap.Strings("signup_roles", report.SignupRoles),
	)

	httpMetrics := promexport.NewHTTPMetrics()
	a.handler = httpapi.New(a.engine, httpapi.Options{
		Logger:     logger,
		TrustProxy: fc.Server.TrustProxy,
		Metrics:    promexport.Handler(a.engine, httpMetrics),
		Instrument: httpMetrics.Instrument,
	}).Handler()
	return nil
}

func (a *app) bootstrapOwner(ctx context.Context, fc fileConfig) error {
	if fc.ownerEmail == "" {
		a.logger.Warn("no owner configured; only self-registration is available")
		return nil
	}
	if fc.ownerPassword == "" {
		return errors.New(envOwnerPassword + " is required with " + envOwnerEmail)
	}
	_, err := a.store.CreateIdentity(ctx, goGuard.NewIdentity{
		Email:       fc.ownerEmail,
		Password:    fc.ownerPassword,
		DisplayName: "Owner",
		Role:        policy.RoleOwner,
	})
	if err != nil && !errors.Is(err, goGuard.ErrIdentityExists) {
		return fmt.Errorf("bootstrap owner: %w", err)
	}
	return nil
}

func (a *app) auditSink(ctx context.Context, fc fileConfig) (goGuard.AuditSink, error) {
	switch fc.Audit.Sink {
	case "", "log":
		return goGuard.NewZapSink(a.logger.Named("audit")), nil
	case "stdout":
		return goGuard.NewJSONWriterSink(os.Stdout), nil
	case "none":
		return goGuard.NoOpSink{}, nil
	case "sql":
		if fc.auditDSN == "" {
			return nil, errors.New(envAuditDSN + " is required for the sql audit sink")
		}
		sink, err := goGuard.OpenSQLSink(ctx, goGuard.AuditDialect(fc.Audit.Dialect), fc.auditDSN)
		if err != nil {
			return nil, fmt.Errorf("audit sink: %w", err)
		}
		a.closers = append(a.closers, func() { _ = sink.Close() })
		return sink, nil
	default:
		return nil, fmt.Errorf("unknown audit sink %q", fc.Audit.Sink)
	}
}

func (a *app) run(ctx context.Context, sc serverSection) error {
	srv := &http.Server{
		Addr:              sc.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", sc.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
