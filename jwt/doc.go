// Package jwt issues, verifies and inspects session tokens exchanged with the backend
// connection.
//
// The auth backend mints a session token after a credential flow succeeds; the live connection
// verifies it during Authenticate. The client itself only needs to read the expiry claim, which
// [Inspect] does without a key.
package jwt
