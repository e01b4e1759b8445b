package middleware

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/goLogin/session"
)

// RequireProvider admits requests while the session was produced by one of providers.
func RequireProvider(source SessionSource, providers ...string) func(http.Handler) http.Handler {
	return Guard(source, func(rec session.Record) bool {
		name, ok := rec.Provider()
		if !ok {
			return false
		}
		for _, p := range providers {
			if strings.EqualFold(p, name) {
				return true
			}
		}
		return false
	})
}
