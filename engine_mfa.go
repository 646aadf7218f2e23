package goGuard

import "context"

// MFAStatus returns the caller's second-factor state.
func (e *Engine) MFAStatus(ctx context.Context, caller *Principal) (MFAStatus, error) {
	if err := e.callerReady(caller); err != nil {
		return MFAStatus{}, err
	}
	return e.flows.MFAStatus(ctx, actorFromPrincipal(caller))
}

// EnrollMFA starts TOTP setup for the caller. It fails with
// [ErrMFAAlreadyEnrolled] while a pending or verified factor exists; an
// abandoned setup is cleared with [Engine.UnenrollMFA].
func (e *Engine) EnrollMFA(ctx context.Context, caller *Principal) (Enrollment, error) {
	if err := e.callerReady(caller); err != nil {
		return Enrollment{}, err
	}
	return e.flows.EnrollMFA(ctx, actorFromPrincipal(caller))
}

// VerifyMFA confirms the caller's pending factor. A code that is not exactly
// MFA.CodeDigits ASCII digits fails with [ErrValidation] before the factor
// provider is called. A wrong code fails with [ErrMFACodeInvalid] and the
// factor stays pending; retries are not capped. An empty factorID selects
// the pending factor.
func (e *Engine) VerifyMFA(ctx context.Context, caller *Principal, factorID, code string) error {
	if err := e.callerReady(caller); err != nil {
		return err
	}
	return e.flows.VerifyMFA(ctx, actorFromPrincipal(caller), factorID, code)
}

// UnenrollMFA removes the caller's pending or verified factor. An empty
// factorID selects the current factor.
func (e *Engine) UnenrollMFA(ctx context.Context, caller *Principal, factorID string) error {
	if err := e.callerReady(caller); err != nil {
		return err
	}
	return e.flows.UnenrollMFA(ctx, actorFromPrincipal(caller), factorID)
}
