// Package throttle implements the per-origin fixed-window login throttle.
//
// # Window semantics
//
// The first check for an origin opens a window of length Window with count 1.
// Further checks inside the window are allowed while count < MaxAttempts and
// increment the count; once count reaches MaxAttempts every check is denied
// until the window ends. Denied checks neither increment the count nor extend
// the window. After the window ends the next check opens a fresh one.
//
// Two backends share these semantics:
//   - [Window] keeps state in a sharded in-process map.
//   - [RedisWindow] keeps state in Redis under the "gg:th:" prefix using one
//     Lua script per check, so all instances see one counter per origin.
//
// # What this package must NOT do
//
//   - Decide what the origin key is (the caller resolves it).
//   - Emit audit events or metrics.
package throttle
