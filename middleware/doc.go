// Package middleware gates local HTTP handlers on the login engine's current session.
//
// # Guards
//
//   - [RequireSession] admits requests while a session is held.
//   - [RequireUnexpired] also requires the session token to be unexpired.
//   - [RequireProvider] also requires one of the named providers.
//
// Each guard injects the session record into the request context; read it with
// [SessionFromContext].
//
// # What this package must NOT do
//
//   - Start login flows or clear sessions.
//   - Verify token signatures (the backend connection does that).
package middleware
