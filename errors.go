package goGuard

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation reports malformed caller input.
	ErrValidation = errors.New("invalid input")
	// ErrRateLimited reports an origin over its login attempt budget.
	ErrRateLimited = errors.New("too many login attempts")
	// ErrCooldownActive reports an identity retried before its cooldown ended.
	ErrCooldownActive = errors.New("login attempted too soon")
	// ErrAuthenticationFailed is the single error for every rejected credential.
	ErrAuthenticationFailed = errors.New("invalid email or password")
	// ErrAuthorizationDenied reports a role hierarchy or self-action violation.
	ErrAuthorizationDenied = errors.New("not authorized")
	// ErrExternalService reports an unreachable or failing collaborator.
	ErrExternalService = errors.New("external service unavailable")
	// ErrMFACodeInvalid reports a wrong second-factor code.
	ErrMFACodeInvalid = errors.New("invalid verification code")
	// ErrMFAAlreadyEnrolled reports enrollment while a factor already exists.
	ErrMFAAlreadyEnrolled = errors.New("second factor already enrolled")
	// ErrMFANotPending reports verification without a pending factor.
	ErrMFANotPending = errors.New("no pending second factor")
	// ErrMFANotEnrolled reports unenrollment without a factor.
	ErrMFANotEnrolled = errors.New("no second factor enrolled")
	// ErrSessionInvalid reports a missing, expired or forged session.
	ErrSessionInvalid = errors.New("invalid session")
	// ErrEngineNotReady is returned by an Engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrIdentityNotFound is returned by providers for unknown identities.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityExists is returned by providers for duplicate email addresses.
	ErrIdentityExists = errors.New("identity already exists")
	// ErrFactorNotFound is returned by factor providers for a factor id the
	// owner does not hold.
	ErrFactorNotFound = errors.New("second factor not found")
)

// RateLimitError carries the time until the origin's window resets.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry in %ds", ErrRateLimited, e.RetryAfterSeconds())
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below one.
func (e *RateLimitError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// CooldownError carries the remaining cooldown for an identity.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s, wait %s", ErrCooldownActive, e.Wait)
}

func (e *CooldownError) Unwrap() error { return ErrCooldownActive }

// DenyError names the policy rule that rejected an administrative request.
type DenyError struct {
	Reason string
}

func (e *DenyError) Error() string {
	return e.Reason
}

func (e *DenyError) Unwrap() error { return ErrAuthorizationDenied }

// UserMessage maps err to the text shown to an end user. Only the category
// of the failure is revealed; the rule text of a DenyError is included since
// the caller is already an authenticated administrator.
func UserMessage(err error) string {
	var (
		rl *RateLimitError
		cd *CooldownError
		de *DenyError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rl):
		return fmt.Sprintf("Too many login attempts. Try again in %d seconds.", rl.RetryAfterSeconds())
	case errors.Is(err, ErrRateLimited):
		return "Too many login attempts. Try again later."
	case errors.As(err, &cd), errors.Is(err, ErrCooldownActive):
		return "Please wait a moment before trying again."
	case errors.Is(err, ErrValidation):
		return "Please check the details you entered."
	case errors.Is(err, ErrAuthenticationFailed):
		return "Invalid email or password."
	case errors.As(err, &de):
		return de.Reason
	case errors.Is(err, ErrAuthorizationDenied):
		return "You are not allowed to do that."
	case errors.Is(err, ErrIdentityExists):
		return "An account with this email already exists."
	case errors.Is(err, ErrIdentityNotFound):
		return "Account not found."
	case errors.Is(err, ErrMFACodeInvalid):
		return "The verification code is incorrect."
	case errors.Is(err, ErrMFAAlreadyEnrolled):
		return "Two-factor authentication is already set up."
	case errors.Is(err, ErrMFANotPending):
		return "There is no two-factor setup waiting for verification."
	case errors.Is(err, ErrMFANotEnrolled):
		return "Two-factor authentication is not set up."
	case errors.Is(err, ErrSessionInvalid):
		return "Your session has ended. Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}
