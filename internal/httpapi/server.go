package httpapi

import (
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Logger *zap.Logger
	// TrustProxy honours X-Forwarded-For and X-Real-IP when resolving the
	// throttle origin. Enable only behind a proxy that overwrites them.
	TrustProxy bool
	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
	// Instrument wraps the route mux directly, so handlers it installs see
	// the matched pattern in Request.Pattern.
	Instrument func(http.Handler) http.Handler
}

// Server routes requests to an Engine.
type Server struct {
	engine  *goGuard.Engine
	logger  *zap.Logger
	opts    Options
	handler http.Handler
}

func New(engine *goGuard.Engine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		logger: logger.Named("http"),
		opts:   opts,
	}
	var h http.Handler = s.routes()
	if opts.Instrument != nil {
		h = opts.Instrument(h)
	}
	s.handler = middleware.ClientOrigin(opts.TrustProxy)(h)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	authed := middleware.Guard(s.engine)
	admin := middleware.RequireAdministrator(s.engine)

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /admin/identities", admin(http.HandlerFunc(s.handleListIdentities)))
	mux.Handle("POST /admin/identities", admin(http.HandlerFunc(s.handleCreateIdentity)))
	mux.Handle("PUT /admin/identities/{id}", admin(http.HandlerFunc(s.handleUpdateIdentity)))
	mux.Handle("DELETE /admin/identities/{id}", admin(http.HandlerFunc(s.handleDeleteIdentity)))
	mux.Handle("POST /admin/identities/{id}/password", admin(http.HandlerFunc(s.handleResetPassword)))

	mux.Handle("GET /mfa/status", authed(http.HandlerFunc(s.handleMFAStatus)))
	mux.Handle("POST /mfa/enroll", authed(http.HandlerFunc(s.handleMFAEnroll)))
	mux.Handle("POST /mfa/verify", authed(http.HandlerFunc(s.handleMFAVerify)))
	mux.Handle("POST /mfa/unenroll", authed(http.HandlerFunc(s.handleMFAUnenroll)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
