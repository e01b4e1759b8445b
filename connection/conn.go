package connection

import (
	"context"
	"fmt"
)

// Outcome is the result class of an authentication exchange.
type Outcome uint8

const (
	// OutcomeSuccess means the backend accepted the token.
	OutcomeSuccess Outcome = iota
	// OutcomeRevoked means the backend accepted, then revoked, the credentials.
	OutcomeRevoked
	// OutcomeFailed means the exchange failed before the credentials were accepted.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRevoked:
		return "revoked"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Code enumerates the error conditions a backend connection reports.
type Code uint8

const (
	CodeUnknown Code = iota
	CodeDataStale
	CodeOperationFailed
	CodePermissionDenied
	CodeDisconnected
	CodePreempted
	CodeExpiredToken
	CodeInvalidToken
	CodeMaxRetries
	CodeOverriddenBySet
)

var codeNames = [...]string{
	CodeUnknown:          "unknown",
	CodeDataStale:        "data_stale",
	CodeOperationFailed:  "operation_failed",
	CodePermissionDenied: "permission_denied",
	CodeDisconnected:     "disconnected",
	CodePreempted:        "preempted",
	CodeExpiredToken:     "expired_token",
	CodeInvalidToken:     "invalid_token",
	CodeMaxRetries:       "max_retries",
	CodeOverriddenBySet:  "overridden_by_set",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

// Error is a structured connection error.
type Error struct {
	Code    Code
	Details string
}

func (e *Error) Error() string {
	if e.Details == "" {
		return "connection: " + e.Code.String()
	}
	return "connection: " + e.Code.String() + ": " + e.Details
}

// Result is what [Conn.Authenticate] reports. AuthData is set on success; Err is set for
// revoked and failed outcomes.
type Result struct {
	Outcome  Outcome
	AuthData map[string]any
	Err      *Error
}

// Subscription cancels an authorization-state listener. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Conn is the backend connection collaborator.
type Conn interface {
	// Authenticate presents token to the backend and blocks until the exchange settles or ctx ends.
	Authenticate(ctx context.Context, token string) Result
	// Deauthenticate drops the connection's credentials. It is idempotent.
	Deauthenticate(ctx context.Context) error
	// SubscribeAuthorized registers fn for the authorization state. fn is called once with the
	// current state before SubscribeAuthorized returns, then on every change. fn must not
	// change the connection's state.
	SubscribeAuthorized(fn func(authorized bool)) Subscription
}
