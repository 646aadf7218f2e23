package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
	"go.uber.org/zap"
)

// ---- form flows ----
//
// Login and signup are plain form posts answered with 303 redirects. Failures
// carry the user-facing message in the query string of the form page.

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithMessage(w, r, "/login", goGuard.ErrValidation)
		return
	}

	res, err := s.engine.Login(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		setRetryAfter(w, err)
		redirectWithMessage(w, r, "/login", err)
		return
	}

	s.repairProfile(r.Context(), res)
	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithMessage(w, r, "/signup", goGuard.ErrValidation)
		return
	}

	res, err := s.engine.Signup(r.Context(), goGuard.SignupRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
		FullName: r.PostForm.Get("fullName"),
		Role:     r.PostForm.Get("role"),
	})
	if err != nil {
		redirectWithMessage(w, r, "/signup", err)
		return
	}

	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.SessionToken(r, s.engine.SessionCookieName()); ok {
		if err := s.engine.Logout(r.Context(), token); err != nil {
			s.logger.Debug("logout ignored", zap.Error(err))
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// repairProfile retries a profile write that may have been deferred at signup.
// Login succeeds regardless.
func (s *Server) repairProfile(ctx context.Context, res *goGuard.LoginResult) {
	p := &goGuard.Principal{
		IdentityID: res.Identity.ID,
		Email:      res.Identity.Email,
		Role:       res.Identity.Role,
	}
	if res.Session != nil {
		p.SessionID = res.Session.SessionID
	}
	if err := s.engine.EnsureProfile(ctx, p); err != nil {
		s.logger.Warn("profile repair deferred", zap.String("user_id", p.IdentityID), zap.Error(err))
	}
}

func redirectWithMessage(w http.ResponseWriter, r *http.Request, page string, err error) {
	target := page + "?message=" + url.QueryEscape(goGuard.UserMessage(err))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.engine.SessionCookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.engine.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.engine.SessionCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.engine.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}
