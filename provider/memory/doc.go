// Package memory is an in-process identity and factor provider for goGuard.
//
// It keeps identities, argon2id password hashes, profiles and TOTP factors
// in maps guarded by one RWMutex. It backs the reference server and the
// engine's end-to-end tests; state is lost on restart.
package memory
