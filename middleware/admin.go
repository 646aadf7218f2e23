package middleware

import (
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/policy"
)

// RequireAdministrator runs [Guard] and then admits only admin and owner
// callers. Per-target rules are still enforced by the Engine.
func RequireAdministrator(engine *goGuard.Engine) func(http.Handler) http.Handler {
	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFromContext(r.Context())
			if d := engine.Authorize(p.Role, policy.ActionList, policy.RoleUnknown, false); !d.Permit {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
