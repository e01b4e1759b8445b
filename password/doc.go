// Package password hashes and verifies account passwords with Argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsUpgrade] reports hashes produced with weaker parameters so a backend can
// re-hash on the next successful login.
//
// The login client never sees passwords at rest; this package serves the stub auth backend.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other goLogin package.
//   - Log plaintext passwords.
package password
