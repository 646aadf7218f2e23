// Package middleware adapts goGuard.Engine session checks to net/http.
//
// # Guards
//
//   - [Guard] resolves the session from the goguard_session cookie or an
//     Authorization: Bearer header and stores the caller in the request
//     context.
//   - [RequireAdministrator] additionally rejects callers whose role is not
//     admin or owner with 403 {"error":"forbidden"}.
//   - [ClientOrigin] attaches the caller's network origin and User-Agent so
//     that login throttling and audit events see them.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Token parsing,
// session lookup and policy rules stay in the Engine.
package middleware
