package policy

import "errors"

// ErrUnknownAction is returned by [ParseAction] for unrecognized text.
var ErrUnknownAction = errors.New("unknown action")

// Action is an administrative identity-management operation.
type Action uint8

const (
	ActionList Action = iota + 1
	ActionCreate
	ActionUpdate
	ActionDelete
	ActionResetPassword
)

var actionNames = map[Action]string{
	ActionList:          "list",
	ActionCreate:        "create",
	ActionUpdate:        "update",
	ActionDelete:        "delete",
	ActionResetPassword: "reset_password",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction maps an action name ("delete", "reset-password", ...) to an Action.
func ParseAction(s string) (Action, error) {
	key := normalizeLabel(s)
	for a, name := range actionNames {
		if name == key {
			return a, nil
		}
	}
	return 0, ErrUnknownAction
}

// Deny reasons. They are stable so callers may match on them.
const (
	ReasonNotAdministrator = "only admin or owner may manage identities"
	ReasonSelfDelete       = "an identity may not delete itself"
	ReasonOwnerProtected   = "only owner may manage another owner"
	ReasonOwnerElevation   = "only owner may grant the owner role"
	ReasonUnknownRole      = "target role is not a known role"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Permit bool
	Reason string
}

// Permitted is the zero-reason permitting decision.
var Permitted = Decision{Permit: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Authorize decides whether actor may perform action on an identity holding
// target. Rules are evaluated in order:
//
//  1. deny unless actor is admin or owner
//  2. deny delete when the target is the actor itself
//  3. deny when target is owner and actor is not owner
//  4. permit
func Authorize(actor Role, action Action, target Role, isSelf bool) Decision {
	if !actor.IsAdministrator() {
		return deny(ReasonNotAdministrator)
	}
	if action == ActionDelete && isSelf {
		return deny(ReasonSelfDelete)
	}
	if target == RoleOwner && actor != RoleOwner {
		return deny(ReasonOwnerProtected)
	}
	return Permitted
}

// AuthorizeList checks the listing action, which has no target.
func AuthorizeList(actor Role) Decision {
	if !actor.IsAdministrator() {
		return deny(ReasonNotAdministrator)
	}
	return Permitted
}

// AuthorizeCreate checks creating an identity with the requested role.
func AuthorizeCreate(actor Role, requested Role) Decision {
	if !requested.Valid() {
		if d := AuthorizeList(actor); !d.Permit {
			return d
		}
		return deny(ReasonUnknownRole)
	}
	d := Authorize(actor, ActionCreate, requested, false)
	if !d.Permit && d.Reason == ReasonOwnerProtected {
		return deny(ReasonOwnerElevation)
	}
	return d
}

// AuthorizeRoleChange checks an update against the target's current role and
// then against the role it would hold afterwards.
func AuthorizeRoleChange(actor Role, current Role, requested Role, isSelf bool) Decision {
	if d := Authorize(actor, ActionUpdate, current, isSelf); !d.Permit {
		return d
	}
	if requested == current {
		return Permitted
	}
	if !requested.Valid() {
		return deny(ReasonUnknownRole)
	}
	if requested == RoleOwner && actor != RoleOwner {
		return deny(ReasonOwnerElevation)
	}
	return Permitted
}
