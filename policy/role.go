package policy

import (
	"errors"
	"strings"
)

// ErrUnknownRole is returned by [ParseRole] for text that does not name a role.
var ErrUnknownRole = errors.New("unknown role")

// Role is a closed enumeration of identity roles. The zero value is
// RoleUnknown and is never authorized for anything.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleClient
	RoleSales
	RoleAccountant
	RoleWarehouse
	RoleManager
	RoleAdmin
	RoleOwner
)

// precedence is indexed by Role. Peers share a rank.
var precedence = [...]int{
	RoleUnknown:    0,
	RoleClient:     1,
	RoleSales:      2,
	RoleAccountant: 2,
	RoleWarehouse:  2,
	RoleManager:    3,
	RoleAdmin:      4,
	RoleOwner:      5,
}

var roleNames = [...]string{
	RoleUnknown:    "unknown",
	RoleClient:     "client",
	RoleSales:      "sales",
	RoleAccountant: "accountant",
	RoleWarehouse:  "warehouse",
	RoleManager:    "manager",
	RoleAdmin:      "admin",
	RoleOwner:      "owner",
}

// aliases maps normalized legacy and localized labels to canonical roles.
// Keys are lower-case with separators collapsed to '_'.
var aliases = map[string]Role{
	"owner":         RoleOwner,
	"pemilik":       RoleOwner,
	"super_admin":   RoleOwner,
	"superadmin":    RoleOwner,
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"manager":       RoleManager,
	"manajer":       RoleManager,
	"sales":         RoleSales,
	"sales_rep":     RoleSales,
	"penjualan":     RoleSales,
	"accountant":    RoleAccountant,
	"accounting":    RoleAccountant,
	"finance":       RoleAccountant,
	"akuntan":       RoleAccountant,
	"warehouse":     RoleWarehouse,
	"inventory":     RoleWarehouse,
	"gudang":        RoleWarehouse,
	"client":        RoleClient,
	"customer":      RoleClient,
	"pelanggan":     RoleClient,
	"klien":         RoleClient,
}

// ParseRole normalizes a stored, legacy, or localized role label into a Role.
// Matching ignores case, surrounding space, and '-', ' ' or '_' separators.
func ParseRole(s string) (Role, error) {
	key := normalizeLabel(s)
	if key == "" {
		return RoleUnknown, ErrUnknownRole
	}
	r, ok := aliases[key]
	if !ok {
		return RoleUnknown, ErrUnknownRole
	}
	return r, nil
}

// MustParseRole is ParseRole for compile-time constants; it panics on error.
func MustParseRole(s string) Role {
	r, err := ParseRole(s)
	if err != nil {
		panic("policy: " + err.Error() + ": " + s)
	}
	return r
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		switch r {
		case ' ', '-', '_', '\t':
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}

// String returns the canonical lower-case role name.
func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return roleNames[RoleUnknown]
}

// Valid reports whether r is one of the defined roles other than RoleUnknown.
func (r Role) Valid() bool {
	return r > RoleUnknown && int(r) < len(precedence)
}

// Rank returns the precedence of r; higher outranks lower, peers are equal.
func (r Role) Rank() int {
	if int(r) < len(precedence) {
		return precedence[r]
	}
	return 0
}

// Outranks reports whether r strictly precedes other.
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// IsAdministrator reports whether r may invoke identity-management actions.
func (r Role) IsAdministrator() bool {
	return r == RoleAdmin || r == RoleOwner
}

// MarshalText encodes the canonical name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrUnknownRole
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes through ParseRole so every text boundary normalizes.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Roles returns every defined role, highest precedence first.
func Roles() []Role {
	return []Role{
		RoleOwner,
		RoleAdmin,
		RoleManager,
		RoleSales,
		RoleAccountant,
		RoleWarehouse,
		RoleClient,
	}
}
