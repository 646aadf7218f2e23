package flows

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/policy"
)

type fakeDirectory struct {
	byID     map[string]IdentityRecord
	revoked  []string
	password map[string]string
	calls    int
}

func newFakeDirectory(records ...IdentityRecord) *fakeDirectory {
	d := &fakeDirectory{byID: map[string]IdentityRecord{}, password: map[string]string{}}
	for _, r := range records {
		d.byID[r.ID] = r
	}
	return d
}

func (d *fakeDirectory) deps(rec *recorder) AdminDeps {
	return AdminDeps{
		Hooks:   rec.hooks(),
		Metrics: AdminMetrics{AdminDenied: 1, IdentityCreated: 2, IdentityUpdated: 3, IdentityDeleted: 4, PasswordReset: 5},
		GetIdentity: func(_ context.Context, id string) (IdentityRecord, error) {
			d.calls++
			r, ok := d.byID[id]
			if !ok {
				return IdentityRecord{}, errNotFound
			}
			return r, nil
		},
		ListIdentities: func(context.Context) ([]IdentityRecord, error) {
			d.calls++
			out := make([]IdentityRecord, 0, len(d.byID))
			for _, r := range d.byID {
				out = append(out, r)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			return out, nil
		},
		CreateIdentity: func(_ context.Context, n NewIdentityRecord) (IdentityRecord, error) {
			d.calls++
			for _, r := range d.byID {
				if r.Email == n.Email {
					return IdentityRecord{}, errExists
				}
			}
			r := IdentityRecord{ID: "new-" + n.Email, Email: n.Email, DisplayName: n.DisplayName, Role: n.Role, Active: true}
			d.byID[r.ID] = r
			return r, nil
		},
		UpdateIdentity: func(_ context.Context, id string, p IdentityPatch) (IdentityRecord, error) {
			d.calls++
			r := d.byID[id]
			if p.Email != nil {
				r.Email = *p.Email
			}
			if p.DisplayName != nil {
				r.DisplayName = *p.DisplayName
			}
			if p.Role != nil {
				r.Role = *p.Role
			}
			if p.Active != nil {
				r.Active = *p.Active
			}
			d.byID[id] = r
			return r, nil
		},
		DeleteIdentity: func(_ context.Context, id string) error {
			d.calls++
			delete(d.byID, id)
			return nil
		},
		SetPassword: func(_ context.Context, id, pw string) error {
			d.calls++
			d.password[id] = pw
			return nil
		},
		RevokeSessions: func(_ context.Context, id string) error {
			d.revoked = append(d.revoked, id)
			return nil
		},
	}
}

var (
	owner   = IdentityRecord{ID: "owner", Email: "owner@example.com", Role: policy.RoleOwner, Active: true}
	admin   = IdentityRecord{ID: "admin", Email: "admin@example.com", Role: policy.RoleAdmin, Active: true}
	manager = IdentityRecord{ID: "manager", Email: "manager@example.com", Role: policy.RoleManager, Active: true}
	clerk   = IdentityRecord{ID: "clerk", Email: "clerk@example.com", Role: policy.RoleSales, Active: true}
)

func actorOf(r IdentityRecord) Actor {
	return Actor{ID: r.ID, Email: r.Email, Role: r.Role, SessionID: "s-" + r.ID}
}

func TestAdminNonAdministratorDeniedBeforeLookup(t *testing.T) {
	rec := newRecorder()
	dir := newFakeDirectory(owner, admin, manager, clerk)
	deps := dir.deps(rec)

	err := RunDeleteIdentity(context.Background(), actorOf(manager), "does-not-exist", deps)
	var de *denyErr
	if !errors.As(err, &de) || de.reason != policy.ReasonNotAdministrator {
		t.Fatalf("expected not-administrator denial, got %v", err)
	}
	if dir.calls != 0 {
		t.Fatalf("provider must not be consulted for non-administrators, calls=%d", dir.calls)
	}
	ev := rec.last()
	if ev.Action != audit.ActionAdminDenied || ev.Metadata["action"] != "delete" || ev.Metadata["role"] != "manager" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}

	if _, err := RunListIdentities(context.Background(), actorOf(clerk), deps); !errors.Is(err, errDenied) {
		t.Fatalf("expected list denial, got %v", err)
	}
}

func TestAdminListIdentities(t *testing.T) {
	rec := newRecorder()
	deps := newFakeDirectory(owner, admin, clerk).deps(rec)
	list, err := RunListIdentities(context.Background(), actorOf(admin), deps)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 identities, got %d", len(list))
	}
}

func TestAdminCreateIdentity(t *testing.T) {
	rec := newRecorder()
	deps := newFakeDirectory(owner, admin).deps(rec)

	created, err := RunCreateIdentity(context.Background(), actorOf(admin), NewIdentityRecord{
		Email: " New@Example.com", Password: "secret-pass", DisplayName: " New Person ", Role: policy.RoleWarehouse,
	}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "new@example.com" || created.DisplayName != "New Person" {
		t.Fatalf("input not normalized: %+v", created)
	}
	if rec.last().Action != audit.ActionIdentityCreated {
		t.Fatalf("expected identity_created audit, got %v", rec.actions())
	}

	_, err = RunCreateIdentity(context.Background(), actorOf(admin), NewIdentityRecord{
		Email: "boss@example.com", Password: "secret-pass", Role: policy.RoleOwner,
	}, deps)
	var de *denyErr
	if !errors.As(err, &de) || de.reason != policy.ReasonOwnerElevation {
		t.Fatalf("admin must not create owners, got %v", err)
	}

	_, err = RunCreateIdentity(context.Background(), actorOf(admin), NewIdentityRecord{
		Email: "new@example.com", Password: "secret-pass", Role: policy.RoleClient,
	}, deps)
	if !errors.Is(err, errExists) {
		t.Fatalf("expected duplicate identity, got %v", err)
	}

	_, err = RunCreateIdentity(context.Background(), actorOf(admin), NewIdentityRecord{
		Email: "x@example.com", Password: "123", Role: policy.RoleClient,
	}, deps)
	if !errors.Is(err, errValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminDeleteRules(t *testing.T) {
	rec := newRecorder()
	dir := newFakeDirectory(owner, admin, clerk)
	deps := dir.deps(rec)

	var de *denyErr
	if err := RunDeleteIdentity(context.Background(), actorOf(admin), admin.ID, deps); !errors.As(err, &de) || de.reason != policy.ReasonSelfDelete {
		t.Fatalf("expected self-delete denial, got %v", err)
	}
	if err := RunDeleteIdentity(context.Background(), actorOf(admin), owner.ID, deps); !errors.As(err, &de) || de.reason != policy.ReasonOwnerProtected {
		t.Fatalf("expected owner protection, got %v", err)
	}
	if err := RunDeleteIdentity(context.Background(), actorOf(admin), "ghost", deps); !errors.Is(err, errNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := RunDeleteIdentity(context.Background(), actorOf(admin), clerk.ID, deps); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := dir.byID[clerk.ID]; ok {
		t.Fatal("identity still present after delete")
	}
	if len(dir.revoked) != 1 || dir.revoked[0] != clerk.ID {
		t.Fatalf("expected sessions of %s revoked, got %v", clerk.ID, dir.revoked)
	}
}

func TestAdminUpdateRoleChange(t *testing.T) {
	rec := newRecorder()
	dir := newFakeDirectory(owner, admin, clerk)
	deps := dir.deps(rec)

	promote := policy.RoleManager
	updated, err := RunUpdateIdentity(context.Background(), actorOf(admin), clerk.ID, IdentityPatch{Role: &promote}, deps)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != policy.RoleManager {
		t.Fatalf("role not changed: %v", updated.Role)
	}
	if len(dir.revoked) != 1 {
		t.Fatalf("role change must revoke sessions, got %v", dir.revoked)
	}
	if ev := rec.last(); ev.Metadata["role_from"] != "sales" || ev.Metadata["role_to"] != "manager" {
		t.Fatalf("unexpected audit metadata: %+v", ev.Metadata)
	}

	elevate := policy.RoleOwner
	if _, err := RunUpdateIdentity(context.Background(), actorOf(admin), clerk.ID, IdentityPatch{Role: &elevate}, deps); !errors.Is(err, errDenied) {
		t.Fatalf("admin must not grant owner, got %v", err)
	}

	name := "Renamed"
	if _, err := RunUpdateIdentity(context.Background(), actorOf(admin), clerk.ID, IdentityPatch{DisplayName: &name}, deps); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if len(dir.revoked) != 1 {
		t.Fatalf("rename must not revoke sessions, got %v", dir.revoked)
	}

	if _, err := RunUpdateIdentity(context.Background(), actorOf(admin), clerk.ID, IdentityPatch{}, deps); !errors.Is(err, errValidation) {
		t.Fatalf("empty patch must be rejected, got %v", err)
	}
}

func TestAdminDeactivateRevokesSessions(t *testing.T) {
	rec := newRecorder()
	dir := newFakeDirectory(owner, admin, clerk)
	deps := dir.deps(rec)

	off := false
	if _, err := RunUpdateIdentity(context.Background(), actorOf(owner), clerk.ID, IdentityPatch{Active: &off}, deps); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if dir.byID[clerk.ID].Active || len(dir.revoked) != 1 {
		t.Fatalf("expected inactive identity with revoked sessions: %+v %v", dir.byID[clerk.ID], dir.revoked)
	}
}

func TestAdminResetPassword(t *testing.T) {
	rec := newRecorder()
	dir := newFakeDirectory(owner, admin, clerk)
	deps := dir.deps(rec)

	if err := RunResetPassword(context.Background(), actorOf(admin), clerk.ID, "brand-new-pass", deps); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if dir.password[clerk.ID] != "brand-new-pass" || len(dir.revoked) != 1 {
		t.Fatalf("reset not applied: %v %v", dir.password, dir.revoked)
	}
	if err := RunResetPassword(context.Background(), actorOf(admin), owner.ID, "brand-new-pass", deps); !errors.Is(err, errDenied) {
		t.Fatalf("admin must not reset owner password, got %v", err)
	}
	if err := RunResetPassword(context.Background(), actorOf(admin), clerk.ID, "x", deps); !errors.Is(err, errValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
