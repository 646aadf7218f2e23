package flows

import (
	"time"

	"github.com/MrEthical07/goGuard/policy"
	"github.com/MrEthical07/goGuard/session"
)

// IdentityRecord is the flow-local identity model.
type IdentityRecord struct {
	ID          string
	Email       string
	DisplayName string
	Role        policy.Role
	Active      bool
	CreatedAt   time.Time
}

// Actor is the authenticated caller of an administrative or MFA flow.
type Actor struct {
	ID        string
	Email     string
	Role      policy.Role
	SessionID string
}

// NewIdentityRecord carries the fields needed to create an identity.
type NewIdentityRecord struct {
	Email       string
	Password    string
	DisplayName string
	Role        policy.Role
}

// IdentityPatch lists identity fields to change; nil fields are untouched.
type IdentityPatch struct {
	Email       *string
	DisplayName *string
	Role        *policy.Role
	Active      *bool
}

// Empty reports whether the patch changes nothing.
func (p IdentityPatch) Empty() bool {
	return p.Email == nil && p.DisplayName == nil && p.Role == nil && p.Active == nil
}

// SessionGrant is an established session plus the token naming it.
type SessionGrant struct {
	Session   *session.Session
	Token     string
	ExpiresAt time.Time
}

// AuthResult is returned by login and signup.
type AuthResult struct {
	Identity IdentityRecord
	Grant    SessionGrant
}

// FactorStatus is the state of a second factor.
type FactorStatus uint8

const (
	FactorUnenrolled FactorStatus = iota
	FactorPending
	FactorVerified
)

func (s FactorStatus) String() string {
	switch s {
	case FactorPending:
		return "pending"
	case FactorVerified:
		return "verified"
	default:
		return "unenrolled"
	}
}

func (s FactorStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Factor is one second factor as reported by the factor provider. Secret
// material never leaves the provider.
type Factor struct {
	ID         string
	OwnerID    string
	Status     FactorStatus
	EnrolledAt time.Time
	VerifiedAt time.Time
}

// Enrollment is the provisioning payload returned when a factor is created.
type Enrollment struct {
	FactorID        string
	Secret          string
	ProvisioningURI string
	QRCode          string
}

// MFAState is the derived state of an identity's second factor.
type MFAState struct {
	Status FactorStatus
	Factor *Factor
}
