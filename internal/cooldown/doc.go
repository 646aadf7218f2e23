// Package cooldown enforces a minimum interval between attempts for the same
// identity, independent of the per-origin throttle.
//
// A check that arrives before the interval has elapsed is denied with the
// remaining wait and does not move the last-attempt time. An allowed check
// records the current time. Keys are compared case-insensitively.
//
// [Gate] keeps timestamps in process memory; [RedisGate] uses
// SET NX PX under the "gg:cd:" prefix so the interval holds across instances.
package cooldown
