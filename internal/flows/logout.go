package flows

import (
	"context"

	"github.com/MrEthical07/goGuard/internal/audit"
)

// LogoutMetrics carries metric IDs needed by the logout flow.
type LogoutMetrics struct {
	Logout int
}

// LogoutDeps captures logout dependencies. Validation and deletion share the
// session store wired into Validate.
type LogoutDeps struct {
	Validate ValidateDeps
	Metrics  LogoutMetrics
}

// RunLogout ends the session named by token.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) error {
	actor, err := RunValidateSession(ctx, token, deps.Validate)
	if err != nil {
		return err
	}
	if err := deps.Validate.SessionStore.Delete(ctx, actor.SessionID); err != nil {
		return deps.Validate.providerError("session_delete", err)
	}

	deps.Validate.inc(deps.Metrics.Logout)
	deps.Validate.emit(ctx, audit.Event{
		Action:      audit.ActionLogout,
		ActorID:     actor.ID,
		TargetEmail: actor.Email,
		Outcome:     audit.OutcomeSuccess,
	})
	return nil
}
