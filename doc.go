// Package goLogin orchestrates client-side login against a hosted auth backend and keeps a
// persisted session in step with the backend connection.
//
// An [Engine] sends credential requests (email/password, anonymous, Facebook, Google,
// Twitter), exchanges the returned session token with a [connection.Conn], persists the
// resulting record in a [session.Store] and watches the connection for server-side
// revocation. [Engine.CheckAuthStatus] resumes a persisted session on startup.
//
// Every flow returns a [Pending] immediately. Its optional handler runs exactly once on the
// engine's [Dispatcher], never on the flow's goroutine.
//
// # Architecture boundaries
//
// goLogin is the public surface. It exposes [Engine], [Builder], [Config], [Identity], the
// [Error] taxonomy and the classifiers. Request assembly and response interpretation live in
// internal/flows; transport, connection, session and jwt are replaceable collaborators.
// Package middleware gates local HTTP handlers on [Engine.CurrentSession].
//
// # What this package must NOT do
//
//   - Implement credential-provider SDKs. Callers obtain provider tokens themselves.
//   - Speak the realtime backend's wire protocol. The connection is an interface.
//   - Fail a flow because the session could not be persisted.
package goLogin
