package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/policy"
	"github.com/MrEthical07/goGuard/session"
	"go.uber.org/zap"
)

// ValidateSessionStore is the subset of session.Store used by validation.
type ValidateSessionStore interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// ValidateDeps captures session validation dependencies.
type ValidateDeps struct {
	Hooks
	ParseToken   func(string) (*jwt.Claims, error)
	SessionStore ValidateSessionStore
}

// RunValidateSession resolves a token to the caller it names. The token must
// verify, its session must be live and the session must agree with the
// token's user and role; a disagreeing session is deleted.
func RunValidateSession(ctx context.Context, token string, deps ValidateDeps) (Actor, error) {
	if deps.ParseToken == nil || deps.SessionStore == nil {
		return Actor{}, deps.Errors.EngineNotReady
	}
	if token == "" {
		return Actor{}, deps.Errors.SessionInvalid
	}

	claims, err := deps.ParseToken(token)
	if err != nil {
		return Actor{}, deps.Errors.SessionInvalid
	}

	sess, err := deps.SessionStore.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrCorrupt) {
			return Actor{}, deps.Errors.SessionInvalid
		}
		return Actor{}, deps.providerError("session_lookup", err)
	}

	role, err := policy.ParseRole(sess.Role)
	if err != nil || sess.UserID != claims.UID || sess.Role != claims.Role {
		deps.logger().Warn("session does not match token", zap.String("session_id", claims.SID))
		_ = deps.SessionStore.Delete(ctx, claims.SID)
		return Actor{}, deps.Errors.SessionInvalid
	}

	return Actor{
		ID:        sess.UserID,
		Email:     sess.Email,
		Role:      role,
		SessionID: sess.SessionID,
	}, nil
}
