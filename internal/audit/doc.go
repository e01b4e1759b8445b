// Package audit delivers login lifecycle events to a sink without blocking flows.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: timestamped record of a flow outcome, keyed by flow id.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goLogin or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
