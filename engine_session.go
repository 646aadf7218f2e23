package goGuard

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (e *Engine) issueSession(ctx context.Context, ident flows.IdentityRecord) (*flows.SessionGrant, error) {
	now := e.now()
	sess := &session.Session{
		SessionID: uuid.NewString(),
		UserID:    ident.ID,
		Email:     ident.Email,
		Role:      ident.Role.String(),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(e.config.Session.TTL).Unix(),
	}

	token, expiresAt, err := e.jwtManager.Issue(sess.UserID, sess.SessionID, sess.Role)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	return &flows.SessionGrant{
		Session:   sess,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (e *Engine) revokeSessions(ctx context.Context, userID string) error {
	n, err := e.sessions.DeleteAllForUser(ctx, userID)
	for i := 0; i < n; i++ {
		e.metricInc(MetricSessionRevoked)
	}
	return err
}

// ValidateSession resolves a session token to its caller. It returns
// [ErrSessionInvalid] for missing, expired, revoked or forged tokens.
func (e *Engine) ValidateSession(ctx context.Context, token string) (*Principal, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	actor, err := e.flows.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return principalFromActor(actor), nil
}

// Logout ends the session named by token.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	return e.flows.Logout(ctx, token)
}

// EnsureProfile repeats the idempotent profile upsert for the caller. Hosts
// call it from authenticated requests so that a profile write deferred at
// signup is eventually repaired.
func (e *Engine) EnsureProfile(ctx context.Context, p *Principal) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	if p == nil || p.IdentityID == "" {
		return ErrSessionInvalid
	}

	ident, err := e.getIdentity(ctx, p.IdentityID)
	if err != nil {
		e.logger.Warn("profile repair lookup failed", zap.String("user_id", p.IdentityID), zap.Error(err))
		return fmt.Errorf("%w: get_identity", ErrExternalService)
	}
	if !e.flows.EnsureProfile(ctx, ident) {
		return fmt.Errorf("%w: upsert_profile", ErrExternalService)
	}
	return nil
}
