// Package connection defines the backend connection collaborator used by the login engine.
//
// A [Conn] authenticates a session token against the realtime backend, drops credentials on
// logout, and broadcasts changes of its authorization state. The engine never speaks the
// backend protocol itself.
//
// [Local] is an in-process Conn that verifies tokens with a [jwt.Manager]. It backs tests, the
// CLI demo mode and the load test.
package connection
