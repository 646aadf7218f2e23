package flows

import (
	"context"

	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/policy"
	"go.uber.org/zap"
)

// AdminMetrics carries metric IDs needed by the identity administration flows.
type AdminMetrics struct {
	AdminDenied     int
	IdentityCreated int
	IdentityUpdated int
	IdentityDeleted int
	PasswordReset   int
}

// AdminDeps captures identity administration dependencies.
type AdminDeps struct {
	Hooks
	Limits  Limits
	Metrics AdminMetrics

	GetIdentity    func(context.Context, string) (IdentityRecord, error)
	ListIdentities func(context.Context) ([]IdentityRecord, error)
	CreateIdentity func(context.Context, NewIdentityRecord) (IdentityRecord, error)
	UpdateIdentity func(context.Context, string, IdentityPatch) (IdentityRecord, error)
	DeleteIdentity func(context.Context, string) error
	SetPassword    func(ctx context.Context, id, password string) error
	// RevokeSessions ends every session of a user whose identity was
	// deleted, re-roled, deactivated or had its password reset.
	RevokeSessions func(context.Context, string) error
}

func (deps AdminDeps) ready() bool {
	return deps.GetIdentity != nil &&
		deps.ListIdentities != nil &&
		deps.CreateIdentity != nil &&
		deps.UpdateIdentity != nil &&
		deps.DeleteIdentity != nil &&
		deps.SetPassword != nil
}

func (deps AdminDeps) deny(ctx context.Context, actor Actor, action policy.Action, targetEmail string, d policy.Decision) error {
	deps.inc(deps.Metrics.AdminDenied)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionAdminDenied,
		ActorID:     actor.ID,
		TargetEmail: targetEmail,
		Outcome:     audit.OutcomeDenied,
		Error:       CodeForbidden,
		Metadata: map[string]string{
			"action": action.String(),
			"reason": d.Reason,
			"role":   actor.Role.String(),
		},
	})
	return deps.Errors.Denied(d.Reason)
}

func (deps AdminDeps) revoke(ctx context.Context, userID string) {
	if deps.RevokeSessions == nil {
		return
	}
	if err := deps.RevokeSessions(ctx, userID); err != nil {
		deps.logger().Warn("session revocation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// loadTarget gates on the administrator rule before touching the provider so
// non-administrators cannot discover which identities exist.
func (deps AdminDeps) loadTarget(ctx context.Context, actor Actor, action policy.Action, id string) (IdentityRecord, error) {
	if d := policy.AuthorizeList(actor.Role); !d.Permit {
		return IdentityRecord{}, deps.deny(ctx, actor, action, "", d)
	}
	if id == "" {
		return IdentityRecord{}, deps.Errors.Validation
	}
	target, err := deps.GetIdentity(ctx, id)
	if err != nil {
		return IdentityRecord{}, deps.providerError("get_identity", err)
	}
	return target, nil
}

// RunListIdentities returns every identity to an administrator.
func RunListIdentities(ctx context.Context, actor Actor, deps AdminDeps) ([]IdentityRecord, error) {
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}
	if d := policy.AuthorizeList(actor.Role); !d.Permit {
		return nil, deps.deny(ctx, actor, policy.ActionList, "", d)
	}
	list, err := deps.ListIdentities(ctx)
	if err != nil {
		return nil, deps.providerError("list_identities", err)
	}
	return list, nil
}

// RunCreateIdentity creates an identity with the requested role.
func RunCreateIdentity(ctx context.Context, actor Actor, req NewIdentityRecord, deps AdminDeps) (IdentityRecord, error) {
	if !deps.ready() {
		return IdentityRecord{}, deps.Errors.EngineNotReady
	}
	if d := policy.AuthorizeList(actor.Role); !d.Permit {
		return IdentityRecord{}, deps.deny(ctx, actor, policy.ActionCreate, auditEmail(req.Email), d)
	}

	limits := deps.Limits.withDefaults()
	email, ok := NormalizeEmail(req.Email, limits.MaxEmailLength)
	if !ok || !ValidPassword(req.Password, limits) || !req.Role.Valid() {
		return IdentityRecord{}, deps.Errors.Validation
	}
	name, ok := NormalizeName(req.DisplayName, limits.MaxNameLength)
	if !ok {
		return IdentityRecord{}, deps.Errors.Validation
	}

	if d := policy.AuthorizeCreate(actor.Role, req.Role); !d.Permit {
		return IdentityRecord{}, deps.deny(ctx, actor, policy.ActionCreate, email, d)
	}

	req.Email = email
	req.DisplayName = name
	created, err := deps.CreateIdentity(ctx, req)
	if err != nil {
		return IdentityRecord{}, deps.providerError("create_identity", err)
	}

	deps.inc(deps.Metrics.IdentityCreated)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionIdentityCreated,
		ActorID:     actor.ID,
		TargetEmail: created.Email,
		Outcome:     audit.OutcomeSuccess,
		Metadata:    map[string]string{"target_id": created.ID, "role": created.Role.String()},
	})
	return created, nil
}

// RunUpdateIdentity applies patch to identity id. Authorization runs against
// the target's current role, and against the requested role when it changes.
func RunUpdateIdentity(ctx context.Context, actor Actor, id string, patch IdentityPatch, deps AdminDeps) (IdentityRecord, error) {
	if !deps.ready() {
		return IdentityRecord{}, deps.Errors.EngineNotReady
	}
	target, err := deps.loadTarget(ctx, actor, policy.ActionUpdate, id)
	if err != nil {
		return IdentityRecord{}, err
	}

	limits := deps.Limits.withDefaults()
	if patch.Empty() {
		return IdentityRecord{}, deps.Errors.Validation
	}
	if patch.Email != nil {
		email, ok := NormalizeEmail(*patch.Email, limits.MaxEmailLength)
		if !ok {
			return IdentityRecord{}, deps.Errors.Validation
		}
		patch.Email = &email
	}
	if patch.DisplayName != nil {
		name, ok := NormalizeName(*patch.DisplayName, limits.MaxNameLength)
		if !ok {
			return IdentityRecord{}, deps.Errors.Validation
		}
		patch.DisplayName = &name
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return IdentityRecord{}, deps.Errors.Validation
	}

	isSelf := target.ID == actor.ID
	roleChange := patch.Role != nil && *patch.Role != target.Role
	var d policy.Decision
	if roleChange {
		d = policy.AuthorizeRoleChange(actor.Role, target.Role, *patch.Role, isSelf)
	} else {
		d = policy.Authorize(actor.Role, policy.ActionUpdate, target.Role, isSelf)
	}
	if !d.Permit {
		return IdentityRecord{}, deps.deny(ctx, actor, policy.ActionUpdate, target.Email, d)
	}

	updated, err := deps.UpdateIdentity(ctx, target.ID, patch)
	if err != nil {
		return IdentityRecord{}, deps.providerError("update_identity", err)
	}
	deactivated := patch.Active != nil && !*patch.Active && target.Active
	if roleChange || deactivated {
		deps.revoke(ctx, target.ID)
	}

	meta := map[string]string{"target_id": target.ID}
	if roleChange {
		meta["role_from"] = target.Role.String()
		meta["role_to"] = patch.Role.String()
	}
	if patch.Active != nil {
		meta["active"] = boolString(*patch.Active)
	}
	deps.inc(deps.Metrics.IdentityUpdated)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionIdentityUpdated,
		ActorID:     actor.ID,
		TargetEmail: updated.Email,
		Outcome:     audit.OutcomeSuccess,
		Metadata:    meta,
	})
	return updated, nil
}

// RunDeleteIdentity deletes identity id and ends its sessions.
func RunDeleteIdentity(ctx context.Context, actor Actor, id string, deps AdminDeps) error {
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}
	target, err := deps.loadTarget(ctx, actor, policy.ActionDelete, id)
	if err != nil {
		return err
	}

	d := policy.Authorize(actor.Role, policy.ActionDelete, target.Role, target.ID == actor.ID)
	if !d.Permit {
		return deps.deny(ctx, actor, policy.ActionDelete, target.Email, d)
	}

	if err := deps.DeleteIdentity(ctx, target.ID); err != nil {
		return deps.providerError("delete_identity", err)
	}
	deps.revoke(ctx, target.ID)

	deps.inc(deps.Metrics.IdentityDeleted)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionIdentityDeleted,
		ActorID:     actor.ID,
		TargetEmail: target.Email,
		Outcome:     audit.OutcomeSuccess,
		Metadata:    map[string]string{"target_id": target.ID, "role": target.Role.String()},
	})
	return nil
}

// RunResetPassword sets a new password for identity id and ends its sessions.
func RunResetPassword(ctx context.Context, actor Actor, id, password string, deps AdminDeps) error {
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}
	target, err := deps.loadTarget(ctx, actor, policy.ActionResetPassword, id)
	if err != nil {
		return err
	}

	d := policy.Authorize(actor.Role, policy.ActionResetPassword, target.Role, target.ID == actor.ID)
	if !d.Permit {
		return deps.deny(ctx, actor, policy.ActionResetPassword, target.Email, d)
	}
	if !ValidPassword(password, deps.Limits.withDefaults()) {
		return deps.Errors.Validation
	}

	if err := deps.SetPassword(ctx, target.ID, password); err != nil {
		return deps.providerError("set_password", err)
	}
	deps.revoke(ctx, target.ID)

	deps.inc(deps.Metrics.PasswordReset)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionIdentityPasswordReset,
		ActorID:     actor.ID,
		TargetEmail: target.Email,
		Outcome:     audit.OutcomeSuccess,
		Metadata:    map[string]string{"target_id": target.ID},
	})
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
