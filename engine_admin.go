package goGuard

import (
	"context"

	"github.com/MrEthical07/goGuard/internal/flows"
)

// Administrative identity operations. Every method takes the caller as a
// Principal resolved by [Engine.ValidateSession]; a nil principal returns
// [ErrSessionInvalid]. Only admin and owner may call them. Policy denials are
// returned as [*DenyError] and audited as admin_denied.

func (e *Engine) ListIdentities(ctx context.Context, caller *Principal) ([]Identity, error) {
	if err := e.callerReady(caller); err != nil {
		return nil, err
	}
	list, err := e.flows.ListIdentities(ctx, actorFromPrincipal(caller))
	if err != nil {
		return nil, err
	}
	return identitiesFromRecords(list), nil
}

// CreateIdentity creates an identity. Only owner may create another owner.
func (e *Engine) CreateIdentity(ctx context.Context, caller *Principal, in NewIdentity) (Identity, error) {
	if err := e.callerReady(caller); err != nil {
		return Identity{}, err
	}
	created, err := e.flows.CreateIdentity(ctx, actorFromPrincipal(caller), flows.NewIdentityRecord{
		Email:       in.Email,
		Password:    in.Password,
		DisplayName: in.DisplayName,
		Role:        in.Role,
	})
	if err != nil {
		return Identity{}, err
	}
	return identityFromRecord(created), nil
}

// UpdateIdentity applies update to identity id. Authorization is checked
// against the target's current role and, for a role change, the requested
// role. A role change or deactivation ends the target's sessions.
func (e *Engine) UpdateIdentity(ctx context.Context, caller *Principal, id string, update IdentityUpdate) (Identity, error) {
	if err := e.callerReady(caller); err != nil {
		return Identity{}, err
	}
	updated, err := e.flows.UpdateIdentity(ctx, actorFromPrincipal(caller), id, flows.IdentityPatch{
		Email:       update.Email,
		DisplayName: update.DisplayName,
		Role:        update.Role,
		Active:      update.Active,
	})
	if err != nil {
		return Identity{}, err
	}
	return identityFromRecord(updated), nil
}

// DeleteIdentity removes identity id and ends its sessions. An identity may
// not delete itself.
func (e *Engine) DeleteIdentity(ctx context.Context, caller *Principal, id string) error {
	if err := e.callerReady(caller); err != nil {
		return err
	}
	return e.flows.DeleteIdentity(ctx, actorFromPrincipal(caller), id)
}

// ResetPassword sets a new password for identity id and ends its sessions.
func (e *Engine) ResetPassword(ctx context.Context, caller *Principal, id, password string) error {
	if err := e.callerReady(caller); err != nil {
		return err
	}
	return e.flows.ResetPassword(ctx, actorFromPrincipal(caller), id, password)
}

func (e *Engine) callerReady(caller *Principal) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	if caller == nil || caller.IdentityID == "" {
		return ErrSessionInvalid
	}
	return nil
}
