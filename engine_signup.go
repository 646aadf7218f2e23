package goGuard

import "context"

// Signup creates an identity, upserts its profile and establishes a
// session. A failed profile write is logged and audited as
// signup_profile_deferred but does not fail the signup; see
// [Engine.EnsureProfile].
//
// Roles outside Signup.AllowedRoles are rejected with [ErrValidation]. A
// duplicate email returns [ErrIdentityExists].
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (*LoginResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flows.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	return loginResultFrom(res), nil
}
