package goGuard

import (
	"context"
	"time"

	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/policy"
	"github.com/MrEthical07/goGuard/session"
)

// FactorStatus is the state of a second factor.
type FactorStatus = flows.FactorStatus

const (
	FactorUnenrolled = flows.FactorUnenrolled
	FactorPending    = flows.FactorPending
	FactorVerified   = flows.FactorVerified
)

// Factor is one second factor as reported by a [FactorProvider].
type Factor = flows.Factor

// Enrollment is the provisioning payload for a newly created factor. Secret
// and QRCode are shown to the user once and never stored by the engine.
type Enrollment = flows.Enrollment

// MFAStatus is the derived second-factor state of an identity: the
// verified factor if any, otherwise the newest pending one.
type MFAStatus = flows.MFAState

// SignupRequest is the raw self-registration input. Role may be any
// spelling accepted by [policy.ParseRole]; empty selects the configured
// default.
type SignupRequest = flows.SignupRequest

// Identity is an account as owned by the [IdentityProvider].
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	Role        policy.Role
	Active      bool
	// MFA is filled by providers that track factor state alongside the
	// identity; the engine does not rely on it.
	MFA       FactorStatus
	CreatedAt time.Time
}

// Principal is the caller resolved from a valid session.
type Principal struct {
	IdentityID string
	Email      string
	Role       policy.Role
	SessionID  string
}

// LoginResult is returned by [Engine.Login] and [Engine.Signup].
type LoginResult struct {
	Identity  Identity
	Session   *session.Session
	Token     string
	ExpiresAt time.Time
}

// NewIdentity carries the fields needed to create an identity.
type NewIdentity struct {
	Email       string
	Password    string
	DisplayName string
	Role        policy.Role
}

// IdentityUpdate lists identity fields to change; nil fields are untouched.
type IdentityUpdate struct {
	Email       *string
	DisplayName *string
	Role        *policy.Role
	Active      *bool
}

// Profile is the application-side record mirrored from an identity. Upserts
// are keyed by IdentityID and must be idempotent.
type Profile struct {
	IdentityID string
	Email      string
	FullName   string
	Role       policy.Role
}

// IdentityProvider is the credential and identity collaborator.
//
// VerifyCredentials returns ErrAuthenticationFailed or ErrIdentityNotFound
// for rejected credentials; any other error is treated as an outage.
// CreateIdentity returns ErrIdentityExists for a duplicate email and
// GetIdentity returns ErrIdentityNotFound for an unknown id.
type IdentityProvider interface {
	VerifyCredentials(ctx context.Context, email, password string) (Identity, error)
	GetIdentity(ctx context.Context, id string) (Identity, error)
	ListIdentities(ctx context.Context) ([]Identity, error)
	CreateIdentity(ctx context.Context, input NewIdentity) (Identity, error)
	UpdateIdentity(ctx context.Context, id string, update IdentityUpdate) (Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id, password string) error
	UpsertProfile(ctx context.Context, profile Profile) error
}

// FactorProvider owns TOTP secrets and code checks. VerifyFactor reports a
// wrong code as (false, nil); a successful check marks the factor verified.
// EnrollFactor must fail with ErrMFAAlreadyEnrolled while the owner holds a
// factor, atomically with creating one. VerifyFactor and UnenrollFactor
// return ErrFactorNotFound for a factor the owner does not hold.
type FactorProvider interface {
	ListFactors(ctx context.Context, ownerID string) ([]Factor, error)
	EnrollFactor(ctx context.Context, ownerID, accountName string) (Enrollment, error)
	VerifyFactor(ctx context.Context, ownerID, factorID, code string) (bool, error)
	UnenrollFactor(ctx context.Context, ownerID, factorID string) error
}

func identityFromRecord(r flows.IdentityRecord) Identity {
	return Identity{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Role:        r.Role,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
	}
}

func recordFromIdentity(i Identity) flows.IdentityRecord {
	return flows.IdentityRecord{
		ID:          i.ID,
		Email:       i.Email,
		DisplayName: i.DisplayName,
		Role:        i.Role,
		Active:      i.Active,
		CreatedAt:   i.CreatedAt,
	}
}

func recordsFromIdentities(list []Identity) []flows.IdentityRecord {
	out := make([]flows.IdentityRecord, len(list))
	for i, ident := range list {
		out[i] = recordFromIdentity(ident)
	}
	return out
}

func identitiesFromRecords(list []flows.IdentityRecord) []Identity {
	out := make([]Identity, len(list))
	for i, r := range list {
		out[i] = identityFromRecord(r)
	}
	return out
}

func actorFromPrincipal(p *Principal) flows.Actor {
	if p == nil {
		return flows.Actor{}
	}
	return flows.Actor{
		ID:        p.IdentityID,
		Email:     p.Email,
		Role:      p.Role,
		SessionID: p.SessionID,
	}
}

func principalFromActor(a flows.Actor) *Principal {
	return &Principal{
		IdentityID: a.ID,
		Email:      a.Email,
		Role:       a.Role,
		SessionID:  a.SessionID,
	}
}

func loginResultFrom(r *flows.AuthResult) *LoginResult {
	if r == nil {
		return nil
	}
	return &LoginResult{
		Identity:  identityFromRecord(r.Identity),
		Session:   r.Grant.Session,
		Token:     r.Grant.Token,
		ExpiresAt: r.Grant.ExpiresAt,
	}
}
