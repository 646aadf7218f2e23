// Package password hashes and verifies credentials with argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// with unpadded standard base64 for salt and hash. [Hasher.NeedsRehash]
// reports hashes produced with weaker parameters so a provider can re-hash
// after the next successful login.
//
// The engine never hashes passwords itself; this package serves identity
// providers such as provider/memory. Length policy is enforced by the engine.
package password
