// Package policy provides the closed role hierarchy and the pure authorization
// decision used by goGuard administrative identity operations.
//
// # Role hierarchy
//
// Roles form a total order fixed at compile time:
//
//	owner > admin > manager > sales = accountant = warehouse > client
//
// [ParseRole] is the only way free-text role names (stored values, localized
// labels, legacy spellings) enter the system. Unknown text is an error and is
// never mapped to a default role.
//
// # Architecture boundaries
//
// This package is pure: no I/O, no clocks, no global mutable state. Callers
// apply the returned [Decision] before delegating to the identity store.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goGuard or any internal package.
//   - Derive precedence from role names at runtime.
package policy
