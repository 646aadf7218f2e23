// Package audit implements async event dispatching for security-relevant operations.
//
// # Components
//
//   - [Event]: immutable record of one security decision (login, signup,
//     identity administration, MFA change).
//   - [Sink]: event consumer. Channel, JSON writer, zap, SQL and no-op sinks
//     are provided.
//   - [Dispatcher]: bounded async relay. Emit never blocks when DropIfFull is
//     set; overflow is counted and reported through OnDrop.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; that belongs to the Engine and the flow functions.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goGuard or any sibling internal package.
//   - Let a sink failure propagate to the operation that emitted the event.
package audit
