package flows

import (
	"context"

	"github.com/MrEthical07/goLogin/connection"
	"github.com/MrEthical07/goLogin/session"
)

// FetchFunc retrieves the JSON object for a request URL.
type FetchFunc func(ctx context.Context, url string) (map[string]any, error)

// RequestDeps captures what a credential request needs.
type RequestDeps struct {
	Fetch  FetchFunc
	Config RequestConfig
}

// ExchangeDeps captures the connection exchange dependencies.
type ExchangeDeps struct {
	Authenticate func(ctx context.Context, token string) connection.Result
	// Commit persists rec and installs the revocation watcher. A returned error is a
	// persistence failure; the exchange still succeeds.
	Commit func(ctx context.Context, rec session.Record) error
	// Discard clears the persisted record.
	Discard func(ctx context.Context)
}

// LoginDeps groups the dependencies of token-producing logins.
type LoginDeps struct {
	Request  RequestDeps
	Exchange ExchangeDeps
}

// RestoreDeps captures restore dependencies.
type RestoreDeps struct {
	Load          func(ctx context.Context) (session.Record, error)
	Discard       func(ctx context.Context)
	KnownProvider func(string) bool
	Exchange      ExchangeDeps
}
