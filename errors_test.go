package goLogin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MrEthical07/goLogin/connection"
	"github.com/stretchr/testify/assert"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		payload map[string]any
		want    ErrorKind
	}{
		{map[string]any{"code": "INVALID_USER"}, KindUserDoesNotExist},
		{map[string]any{"code": "INVALID_PASSWORD"}, KindInvalidPassword},
		{map[string]any{"code": "NO_ACCESS"}, KindAccessNotGranted},
		{map[string]any{"code": "NO_ACCOUNT"}, KindAccountNotFound},
		{map[string]any{"code": "AUTHENTICATION_DISABLED"}, KindAuthenticationProviderNotEnabled},
		{map[string]any{"code": "INVALID_EMAIL"}, KindInvalidEmail},
		{map[string]any{"code": "EMAIL_TAKEN"}, KindEmailTaken},
		{map[string]any{"code": "190"}, KindBadSystemToken},
		{map[string]any{"code": "invalid_user"}, KindUnknown},
		{map[string]any{"code": "SOMETHING_NEW"}, KindUnknown},
		{map[string]any{"code": 190.0}, KindUnknown},
		{map[string]any{"message": "no code"}, KindUnknown},
		{nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.payload), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyResponse(tt.payload))
		})
	}
}

func TestClassifyConnection(t *testing.T) {
	tests := map[connection.Code]ErrorKind{
		connection.CodeDataStale:        KindDataStale,
		connection.CodeOperationFailed:  KindOperationFailed,
		connection.CodePermissionDenied: KindPermissionDenied,
		connection.CodeDisconnected:     KindDisconnected,
		connection.CodePreempted:        KindPreempted,
		connection.CodeExpiredToken:     KindExpiredToken,
		connection.CodeInvalidToken:     KindInvalidToken,
		connection.CodeMaxRetries:       KindMaxRetries,
		connection.CodeOverriddenBySet:  KindOverriddenBySet,
		connection.CodeUnknown:          KindUnknown,
	}
	for code, want := range tests {
		assert.Equal(t, want, ClassifyConnection(&connection.Error{Code: code}), code.String())
	}
	assert.Equal(t, KindUnknown, ClassifyConnection(nil))
}

func TestErrorMatchingAndMessages(t *testing.T) {
	err := newError(KindInvalidToken, &connection.Error{Code: connection.CodeInvalidToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrExpiredToken)
	assert.Equal(t, "The supplied auth token was invalid", err.Message())
	assert.Contains(t, err.Error(), "InvalidToken")
	assert.Contains(t, err.Error(), "invalid_token")

	var connErr *connection.Error
	assert.True(t, errors.As(err, &connErr))

	wrapped := fmt.Errorf("login: %w", newError(KindUnknown, context.DeadlineExceeded))
	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindUnknown, kind)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)

	for k := ErrorKind(0); k < kindCount; k++ {
		assert.NotEmpty(t, k.Message(), k.String())
		assert.NotContains(t, k.String(), "ErrorKind(")
	}
	assert.Equal(t, "ErrorKind(200)", ErrorKind(200).String())
	assert.Equal(t, KindUnknown.Message(), ErrorKind(200).Message())
}

func TestAuditErrorCode(t *testing.T) {
	assert.Equal(t, AuditErrorCode(""), auditErrorCode(nil))
	assert.Equal(t, auditErrEngineClosed, auditErrorCode(newError(KindUnknown, ErrEngineClosed)))
	assert.Equal(t, auditErrTimeout, auditErrorCode(newError(KindUnknown, context.DeadlineExceeded)))
	assert.Equal(t, auditErrCanceled, auditErrorCode(context.Canceled))
	assert.Equal(t, AuditErrorCode("EmailTaken"), auditErrorCode(ErrEmailTaken))
	assert.Equal(t, auditErrInternal, auditErrorCode(errors.New("boom")))
}
