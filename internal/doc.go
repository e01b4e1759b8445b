// Package internal groups the packages that are private to goLogin.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function parts of every Engine operation
//   - logging: slog handler setup with trace correlation
//   - stubbackend: in-process auth backend used by the CLI demo, the loadtest and tests
//
// # What this package must NOT do
//
//   - Export types that appear in the public goLogin API.
//   - Be imported by any package outside the goLogin module.
package internal
