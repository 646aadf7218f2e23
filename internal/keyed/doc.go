// Package keyed provides a sharded, mutex-per-shard map used for process-local
// security state (throttle windows, cooldown timestamps, sessions).
//
// # Design
//
// Keys are spread over a fixed number of shards by xxhash. All mutation of a
// key happens inside [Map.Update] while the owning shard lock is held, which
// makes read-modify-write sequences on one key linearizable without
// serializing unrelated keys. Entries are created lazily and removed either
// explicitly or by [Map.Sweep] once their expiry has passed.
//
// # What this package must NOT do
//
//   - Perform I/O or call back into caller code that may block.
//   - Import goGuard or any sibling package.
package keyed
