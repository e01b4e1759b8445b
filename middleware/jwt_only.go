package middleware

import (
	"net/http"
	"time"

	"github.com/MrEthical07/goLogin/jwt"
	"github.com/MrEthical07/goLogin/session"
)

// RequireUnexpired admits requests while the session token's exp claim is in the future.
// Tokens that are not JWTs are rejected. The signature is not verified; the connection
// already accepted the token.
func RequireUnexpired(source SessionSource) func(http.Handler) http.Handler {
	return Guard(source, func(rec session.Record) bool {
		exp, ok := jwt.ExpiresAt(rec.Token)
		return ok && time.Now().Before(exp)
	})
}
