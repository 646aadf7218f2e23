// Package session provides session persistence for authenticated identities
// and a compact binary session encoding.
//
// # Stores
//
// [MemoryStore] keeps sessions in a sharded in-process map; [RedisStore]
// keeps them in Redis so several server instances share one session space.
// Both satisfy [Store].
//
// # Architecture boundaries
//
// This package owns the [Session] model and its storage. It does NOT parse
// tokens or make authorization decisions; those belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goGuard, jwt or policy (no upward imports).
//   - Store passwords, factor secrets or codes in [Session] fields.
package session
