package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/goLogin/session"
)

// SessionSource reports the current session. *goLogin.Engine satisfies it.
type SessionSource interface {
	CurrentSession() (session.Record, bool)
}

type sessionContextKey struct{}

// SessionFromContext returns the record injected by a guard.
func SessionFromContext(ctx context.Context) (session.Record, bool) {
	rec, ok := ctx.Value(sessionContextKey{}).(session.Record)
	return rec, ok
}

// Guard admits requests while source holds a session accepted by check. A nil check
// accepts every session.
func Guard(source SessionSource, check func(session.Record) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if source == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			rec, ok := source.CurrentSession()
			if !ok || (check != nil && !check(rec)) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession admits requests while source holds any session.
func RequireSession(source SessionSource) func(http.Handler) http.Handler {
	return Guard(source, nil)
}
