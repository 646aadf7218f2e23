// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunSignup, RunDeleteIdentity, RunVerifyMFA,
// etc.) accepts a typed dependency struct and returns results without
// side-effects beyond those dependencies. Flows can therefore be tested with
// plain function fakes, and the Engine type stays thin.
//
// # Architecture boundaries
//
// Flow functions coordinate the throttle, cooldown, identity provider, factor
// provider, session issuance, audit emission and metrics. They do NOT own any
// of these resources; ownership stays with the Engine. Authorization decisions
// come from the policy package and are applied here before any provider call.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGuard (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency functions.
//   - Return provider errors verbatim to the caller.
package flows
