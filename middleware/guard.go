package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
)

type principalContextKey struct{}

// PrincipalFromContext returns the caller stored by [Guard].
func PrincipalFromContext(ctx context.Context) (*goGuard.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*goGuard.Principal)
	return p, ok && p != nil
}

// WithPrincipal stores p in ctx as [Guard] does.
func WithPrincipal(ctx context.Context, p *goGuard.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// Guard rejects requests without a valid session with 403 and no further
// detail, the same answer a failed role check gets.
func Guard(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}

			token, ok := SessionToken(r, engine.SessionCookieName())
			if !ok {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}

			p, err := engine.ValidateSession(r.Context(), token)
			if err != nil {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// SessionToken reads the session token from the named cookie, falling back
// to an Authorization: Bearer header.
func SessionToken(r *http.Request, cookieName string) (string, bool) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// WriteError writes {"error": msg} with status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
