// Package goGuard is the authentication-security and access-control core of a
// multi-role business application.
//
// It throttles login attempts per network origin, spaces attempts per
// identity, records security events to an audit trail, enforces the role
// hierarchy over administrative identity operations and drives second-factor
// enrollment. Credential storage, identity records and TOTP primitives belong
// to an external collaborator reached through [IdentityProvider] and
// [FactorProvider].
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goGuard is the public surface. It exposes [Engine], [Builder], [Config] and
// value types. Flow orchestration, throttle and cooldown state, audit
// dispatch and the HTTP handlers live under internal/ and are never exported.
// The role model and authorization rules are public in package policy so
// hosts can render UIs from the same decisions.
//
// # Failure model
//
// Throttle, cooldown and policy denials are returned as typed errors
// ([RateLimitError], [CooldownError], [DenyError]). Collaborator failures are
// logged with detail and surface only as [ErrExternalService]. Audit
// failures are always swallowed. Use [UserMessage] to render any error for an
// end user.
package goGuard
