package goLogin

import "github.com/MrEthical07/goLogin/internal/audit"

// AuditEvent is a login lifecycle record delivered to an [AuditSink].
type AuditEvent = audit.Event

// AuditSink receives audit events on the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per event.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink returns a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
var NewJSONWriterSink = audit.NewJSONWriterSink

// SlogSink logs events through a *slog.Logger.
type SlogSink = audit.SlogSink

// NewSlogSink returns a sink logging to logger.
var NewSlogSink = audit.NewSlogSink

// Audit event types.
const (
	AuditLoginSuccess      = "login_success"
	AuditLoginFailure      = "login_failure"
	AuditSessionRevoked    = "session_revoked"
	AuditSessionRestored   = "session_restored"
	AuditLogout            = "logout"
	AuditAccountCreated    = "account_created"
	AuditAccountRemoved    = "account_removed"
	AuditPasswordChanged   = "password_changed"
	AuditPasswordResetSent = "password_reset_sent"
)
