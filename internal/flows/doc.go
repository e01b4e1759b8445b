// Package flows contains the pure-function parts of every Engine operation.
//
// Credential checks, request assembly, response interpretation and the connection exchange are
// plain functions over typed dependency structs. They report failures as a [Failure] value that
// the root package turns into its public error type.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the transport, the backend connection and the session
// state through function-typed dependencies. They do NOT own any of these resources; ownership
// stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goLogin (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency functions.
package flows
