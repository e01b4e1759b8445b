// Package session persists the client's current login between runs.
//
// # Record encoding
//
// A [Record] is the session token plus the raw user object returned by the backend, encoded
// as JSON with the keys "token" and "userData". Undecodable blobs surface as
// [ErrCorruptRecord] so callers can discard them.
//
// # Stores
//
// [Store] holds at most one record. [MemoryStore] is process-local, [RedisStore] keeps the
// record under a prefixed key with an optional TTL, and [SQLiteStore] keeps it in a local
// database file.
//
// # What this package must NOT do
//
//   - Import goLogin, connection or jwt (no upward imports).
//   - Interpret tokens or decide whether a record is usable for restore.
package session
