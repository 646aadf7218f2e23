package middleware

import (
	"net"
	"net/http"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
)

// ClientOrigin attaches the client address and User-Agent to the request
// context. With trustProxy the first X-Forwarded-For hop wins, then
// X-Real-IP; the TCP peer is used otherwise.
func ClientOrigin(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := goGuard.WithClientIP(r.Context(), ClientIP(r, trustProxy))
			if ua := r.UserAgent(); ua != "" {
				ctx = goGuard.WithUserAgent(ctx, ua)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP resolves the origin used as the throttle key.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
