package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/goLogin/connection"
	"github.com/MrEthical07/goLogin/session"
)

// ProviderPassword is the wire name of the email/password provider.
const ProviderPassword = "password"

// ExchangeResult is the outcome of a connection exchange.
type ExchangeResult struct {
	Token    string
	Fields   IdentityFields
	AuthData map[string]any
	// PersistErr is a non-fatal persistence failure.
	PersistErr error
	Failure    *Failure
}

// RunTokenLogin sends a credential request and exchanges the returned token.
func RunTokenLogin(ctx context.Context, path string, fields map[string]string, password bool, deps LoginDeps) ExchangeResult {
	payload, failure := fetch(ctx, path, fields, deps.Request)
	if failure != nil {
		return ExchangeResult{Failure: failure}
	}
	resp := InterpretTokenResponse(payload)
	if resp.Failure != nil {
		return ExchangeResult{Failure: resp.Failure}
	}
	return RunExchange(ctx, resp.Token, resp.User, password, deps.Exchange)
}

// RunExchange authenticates token with the backend connection.
//
// On success the identity is extracted before anything is persisted; a user object that cannot
// form an identity discards the stored record. A revocation also discards it. A failed exchange
// leaves storage untouched.
func RunExchange(ctx context.Context, token string, user map[string]any, password bool, deps ExchangeDeps) ExchangeResult {
	res := deps.Authenticate(ctx, token)
	switch res.Outcome {
	case connection.OutcomeSuccess:
		if err := ctx.Err(); err != nil {
			return ExchangeResult{Failure: &Failure{Kind: FailureContext, Cause: err}}
		}
		fields, ok := ExtractIdentity(user, password)
		if !ok {
			deps.Discard(ctx)
			return ExchangeResult{Failure: &Failure{Kind: FailureIdentity}}
		}
		persistErr := deps.Commit(ctx, session.Record{Token: token, UserData: user})
		return ExchangeResult{Token: token, Fields: fields, AuthData: res.AuthData, PersistErr: persistErr}
	case connection.OutcomeRevoked:
		deps.Discard(ctx)
		return ExchangeResult{Failure: &Failure{Kind: FailureConnection, Conn: res.Err, Revoked: true}}
	default:
		if err := ctx.Err(); err != nil {
			return ExchangeResult{Failure: &Failure{Kind: FailureContext, Cause: err}}
		}
		return ExchangeResult{Failure: &Failure{Kind: FailureConnection, Conn: res.Err}}
	}
}

// IsPasswordProvider reports whether name denotes the password provider.
func IsPasswordProvider(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), ProviderPassword)
}

func fetch(ctx context.Context, path string, fields map[string]string, deps RequestDeps) (map[string]any, *Failure) {
	req := BuildRequest(path, fields, deps.Config)
	payload, err := deps.Fetch(ctx, req.URL())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &Failure{Kind: FailureContext, Cause: ctxErr}
		}
		return nil, &Failure{Kind: FailureNoData, Cause: err}
	}
	if payload == nil {
		return nil, &Failure{Kind: FailureNoData}
	}
	return payload, nil
}
