package goLogin

import (
	"context"
	"errors"
	"time"
)

// AuditErrorCode is the error field of an audit event.
type AuditErrorCode string

const (
	auditErrEngineClosed AuditErrorCode = "engine_closed"
	auditErrTimeout      AuditErrorCode = "timeout"
	auditErrCanceled     AuditErrorCode = "canceled"
	auditErrInternal     AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	uid string,
	provider Provider,
	success bool,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}
	flowID, _ := FlowIDFromContext(ctx)

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		FlowID:    flowID,
		UID:       uid,
		Success:   success,
		Metadata:  metadata,
	}
	if provider != ProviderInvalid {
		event.Provider = provider.String()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(context.WithoutCancel(ctx), event)
}

// auditErrorCode renders err as a stable code: the kind name for domain errors.
func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrEngineClosed):
		return auditErrEngineClosed
	case errors.Is(err, context.DeadlineExceeded):
		return auditErrTimeout
	case errors.Is(err, context.Canceled):
		return auditErrCanceled
	}
	if kind, ok := KindOf(err); ok {
		return AuditErrorCode(kind.String())
	}
	return auditErrInternal
}
