package goLogin

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goLogin/connection"
)

// ErrorKind is the closed taxonomy of login failures.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindUserDoesNotExist
	KindInvalidPassword
	KindAccessNotGranted
	KindAccountNotFound
	KindAuthenticationProviderNotEnabled
	KindInvalidEmail
	KindBadSystemToken
	KindEmailTaken
	KindInvalidFirebase
	KindBadProviderToken
	KindDataStale
	KindOperationFailed
	KindPermissionDenied
	KindDisconnected
	KindPreempted
	KindExpiredToken
	KindInvalidToken
	KindMaxRetries
	KindOverriddenBySet
	KindConfigurationError
	kindCount
)

type kindInfo struct {
	name    string
	message string
}

var kindTable = [kindCount]kindInfo{
	KindUnknown:                          {"Unknown", "An unknown error occurred"},
	KindUserDoesNotExist:                 {"UserDoesNotExist", "The specified user does not exist"},
	KindInvalidPassword:                  {"InvalidPassword", "The specified password is incorrect"},
	KindAccessNotGranted:                 {"AccessNotGranted", "The user did not authorize the application"},
	KindAccountNotFound:                  {"AccountNotFound", "No account exists for the supplied credentials"},
	KindAuthenticationProviderNotEnabled: {"AuthenticationProviderNotEnabled", "The requested authentication provider is disabled"},
	KindInvalidEmail:                     {"InvalidEmail", "The specified email address is invalid"},
	KindBadSystemToken:                   {"BadSystemToken", "The third-party system token was rejected"},
	KindEmailTaken:                       {"EmailTaken", "The specified email address is already in use"},
	KindInvalidFirebase:                  {"InvalidFirebase", "The target backend is invalid"},
	KindBadProviderToken:                 {"BadProviderToken", "The supplied provider credentials are missing or invalid"},
	KindDataStale:                        {"DataStale", "The transaction needs to be run again with current data"},
	KindOperationFailed:                  {"OperationFailed", "The server indicated that this operation failed"},
	KindPermissionDenied:                 {"PermissionDenied", "This client does not have permission to perform this operation"},
	KindDisconnected:                     {"Disconnected", "The operation had to be aborted due to a network disconnect"},
	KindPreempted:                        {"Preempted", "The active or pending auth credentials were superseded by another call to auth"},
	KindExpiredToken:                     {"ExpiredToken", "The supplied auth token has expired"},
	KindInvalidToken:                     {"InvalidToken", "The supplied auth token was invalid"},
	KindMaxRetries:                       {"MaxRetries", "The transaction had too many retries"},
	KindOverriddenBySet:                  {"OverriddenBySet", "The transaction was overridden by a subsequent set"},
	KindConfigurationError:               {"ConfigurationError", "The login engine configuration is invalid"},
}

func (k ErrorKind) String() string {
	if k < kindCount {
		return kindTable[k].name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Message returns the fixed human-readable message for k.
func (k ErrorKind) Message() string {
	if k < kindCount {
		return kindTable[k].message
	}
	return kindTable[KindUnknown].message
}

// Error is the error delivered to flow handlers. Its message is derived from its kind.
//
// Two Errors match under errors.Is when their kinds are equal, so the Err* sentinels below can
// be used as targets.
type Error struct {
	kind  ErrorKind
	cause error
}

func newError(kind ErrorKind, cause error) *Error {
	return &Error{kind: kind, cause: cause}
}

// Kind returns the error's classification.
func (e *Error) Kind() ErrorKind {
	return e.kind
}

// Message returns the fixed message for the error's kind.
func (e *Error) Message() string {
	return e.kind.Message()
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.kind.String() + ": " + e.kind.Message() + ": " + e.cause.Error()
	}
	return e.kind.String() + ": " + e.kind.Message()
}

// Unwrap returns the underlying cause, such as context.DeadlineExceeded.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return KindUnknown, false
}

var (
	ErrUnknown                          = &Error{kind: KindUnknown}
	ErrUserDoesNotExist                 = &Error{kind: KindUserDoesNotExist}
	ErrInvalidPassword                  = &Error{kind: KindInvalidPassword}
	ErrAccessNotGranted                 = &Error{kind: KindAccessNotGranted}
	ErrAccountNotFound                  = &Error{kind: KindAccountNotFound}
	ErrAuthenticationProviderNotEnabled = &Error{kind: KindAuthenticationProviderNotEnabled}
	ErrInvalidEmail                     = &Error{kind: KindInvalidEmail}
	ErrBadSystemToken                   = &Error{kind: KindBadSystemToken}
	ErrEmailTaken                       = &Error{kind: KindEmailTaken}
	ErrInvalidFirebase                  = &Error{kind: KindInvalidFirebase}
	ErrBadProviderToken                 = &Error{kind: KindBadProviderToken}
	ErrDataStale                        = &Error{kind: KindDataStale}
	ErrOperationFailed                  = &Error{kind: KindOperationFailed}
	ErrPermissionDenied                 = &Error{kind: KindPermissionDenied}
	ErrDisconnected                     = &Error{kind: KindDisconnected}
	ErrPreempted                        = &Error{kind: KindPreempted}
	ErrExpiredToken                     = &Error{kind: KindExpiredToken}
	ErrInvalidToken                     = &Error{kind: KindInvalidToken}
	ErrMaxRetries                       = &Error{kind: KindMaxRetries}
	ErrOverriddenBySet                  = &Error{kind: KindOverriddenBySet}
	ErrConfigurationError               = &Error{kind: KindConfigurationError}
)

var (
	// ErrEngineClosed is the cause of failures for flows started after Close.
	ErrEngineClosed = errors.New("login engine closed")
	// ErrUnknownProvider is returned by ParseProvider for unrecognized names.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrBuilderUsed is returned when Build is called twice.
	ErrBuilderUsed = errors.New("builder already used")
)

var responseCodes = map[string]ErrorKind{
	"190":                     KindBadSystemToken,
	"INVALID_USER":            KindUserDoesNotExist,
	"INVALID_PASSWORD":        KindInvalidPassword,
	"NO_ACCESS":               KindAccessNotGranted,
	"NO_ACCOUNT":              KindAccountNotFound,
	"AUTHENTICATION_DISABLED": KindAuthenticationProviderNotEnabled,
	"INVALID_EMAIL":           KindInvalidEmail,
	"EMAIL_TAKEN":             KindEmailTaken,
}

var connectionCodes = map[connection.Code]ErrorKind{
	connection.CodeDataStale:        KindDataStale,
	connection.CodeOperationFailed:  KindOperationFailed,
	connection.CodePermissionDenied: KindPermissionDenied,
	connection.CodeDisconnected:     KindDisconnected,
	connection.CodePreempted:        KindPreempted,
	connection.CodeExpiredToken:     KindExpiredToken,
	connection.CodeInvalidToken:     KindInvalidToken,
	connection.CodeMaxRetries:       KindMaxRetries,
	connection.CodeOverriddenBySet:  KindOverriddenBySet,
}

// ClassifyResponse maps a backend error payload to a kind. The payload's "code" must be a
// string; anything else yields KindUnknown.
func ClassifyResponse(payload map[string]any) ErrorKind {
	code, ok := payload["code"].(string)
	if !ok {
		return KindUnknown
	}
	if kind, ok := responseCodes[code]; ok {
		return kind
	}
	return KindUnknown
}

// ClassifyConnection maps a connection error to a kind.
func ClassifyConnection(err *connection.Error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	if kind, ok := connectionCodes[err.Code]; ok {
		return kind
	}
	return KindUnknown
}
