package test

import (
	"context"
	"net/http"
	"testing"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/MrEthical07/goGuard/policy"
	"github.com/MrEthical07/goGuard/provider/memory"
)

// Guards the public API against accidental breaking changes.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goGuard.New
	_ = goGuard.DefaultConfig
	_ = goGuard.UserMessage

	var _ *goGuard.Engine
	var _ goGuard.Config
	var _ goGuard.LoginResult
	var _ goGuard.Principal
	var _ goGuard.SignupRequest
	var _ goGuard.SecurityReport
	var _ goGuard.IdentityProvider = (*memory.Store)(nil)
	var _ goGuard.FactorProvider = (*memory.Store)(nil)
	var _ goGuard.AuditSink = goGuard.NoOpSink{}
	var _ goGuard.AuditSink = (*goGuard.SQLSink)(nil)

	var _ error = goGuard.ErrValidation
	var _ error = goGuard.ErrRateLimited
	var _ error = goGuard.ErrCooldownActive
	var _ error = goGuard.ErrAuthenticationFailed
	var _ error = goGuard.ErrAuthorizationDenied
	var _ error = goGuard.ErrExternalService
	var _ error = goGuard.ErrMFACodeInvalid
	var _ error = goGuard.ErrMFAAlreadyEnrolled
	var _ error = goGuard.ErrFactorNotFound
	var _ error = goGuard.ErrMFANotPending
	var _ error = goGuard.ErrMFANotEnrolled
	var _ error = goGuard.ErrSessionInvalid
	var _ error = goGuard.ErrEngineNotReady
	var _ error = (*goGuard.RateLimitError)(nil)
	var _ error = (*goGuard.CooldownError)(nil)
	var _ error = (*goGuard.DenyError)(nil)

	var _ func(*goGuard.Engine) func(http.Handler) http.Handler = middleware.Guard
	var _ func(*goGuard.Engine) func(http.Handler) http.Handler = middleware.RequireAdministrator
	var _ func(bool) func(http.Handler) http.Handler = middleware.ClientOrigin

	var _ func(*goGuard.Engine, context.Context, string, string) (*goGuard.LoginResult, error) = (*goGuard.Engine).Login
	var _ func(*goGuard.Engine, context.Context, goGuard.SignupRequest) (*goGuard.LoginResult, error) = (*goGuard.Engine).Signup
	var _ func(*goGuard.Engine, context.Context, string) (*goGuard.Principal, error) = (*goGuard.Engine).ValidateSession
	var _ func(*goGuard.Engine, context.Context, string) error = (*goGuard.Engine).Logout
	var _ func(*goGuard.Engine, policy.Role, policy.Action, policy.Role, bool) policy.Decision = (*goGuard.Engine).Authorize
	var _ func(*goGuard.Engine, context.Context, *goGuard.Principal) (goGuard.Enrollment, error) = (*goGuard.Engine).EnrollMFA
	var _ func(*goGuard.Engine, context.Context, *goGuard.Principal, string, string) error = (*goGuard.Engine).VerifyMFA
}
