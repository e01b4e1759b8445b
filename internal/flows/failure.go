package flows

import (
	"fmt"

	"github.com/MrEthical07/goLogin/connection"
)

// FailureKind classifies flow failures for root-level mapping.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidEmail
	FailureInvalidPassword
	FailureBadProviderToken
	// FailureBackend carries an error payload returned by the backend.
	FailureBackend
	// FailureNoData means the transport produced no usable response.
	FailureNoData
	// FailureMalformed means the response parsed but had an unexpected shape.
	FailureMalformed
	// FailureConnection carries an error reported by the backend connection.
	FailureConnection
	// FailureIdentity means the user object lacked the fields an identity needs.
	FailureIdentity
	// FailureContext means the flow's context ended first.
	FailureContext
)

var failureNames = [...]string{
	FailureNone:             "none",
	FailureInvalidEmail:     "invalid_email",
	FailureInvalidPassword:  "invalid_password",
	FailureBadProviderToken: "bad_provider_token",
	FailureBackend:          "backend",
	FailureNoData:           "no_data",
	FailureMalformed:        "malformed",
	FailureConnection:       "connection",
	FailureIdentity:         "identity",
	FailureContext:          "context",
}

func (k FailureKind) String() string {
	if k >= 0 && int(k) < len(failureNames) {
		return failureNames[k]
	}
	return fmt.Sprintf("failure(%d)", int(k))
}

// Failure describes why a flow did not succeed.
type Failure struct {
	Kind FailureKind
	// Payload is the backend's error object for FailureBackend. It may be nil.
	Payload map[string]any
	// Conn is the connection error for FailureConnection.
	Conn *connection.Error
	// Cause is the underlying error, if any.
	Cause error
	// Revoked is set when the connection accepted and then revoked the credentials.
	Revoked bool
}

// Local reports whether the failure was decided without a network call.
func (f *Failure) Local() bool {
	if f == nil {
		return false
	}
	switch f.Kind {
	case FailureInvalidEmail, FailureInvalidPassword, FailureBadProviderToken:
		return true
	default:
		return false
	}
}
