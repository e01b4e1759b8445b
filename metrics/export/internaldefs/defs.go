package internaldefs

import (
	goLogin "github.com/MrEthical07/goLogin"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   goLogin.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   goLogin.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter of audit events dropped for backpressure.
const AuditDroppedName = "gologin_audit_dropped_total"

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goLogin.MetricLoginSuccess, Name: "gologin_login_success_total", Help: "Identity flows that produced an identity."},
	{ID: goLogin.MetricLoginFailure, Name: "gologin_login_failure_total", Help: "Identity flows that ended with an error."},
	{ID: goLogin.MetricValidationRejected, Name: "gologin_validation_rejected_total", Help: "Flows rejected before any request was sent."},
	{ID: goLogin.MetricConnectionAuthSuccess, Name: "gologin_connection_auth_success_total", Help: "Session tokens accepted by the connection."},
	{ID: goLogin.MetricConnectionAuthRevoked, Name: "gologin_connection_auth_revoked_total", Help: "Session tokens revoked during the exchange."},
	{ID: goLogin.MetricConnectionAuthError, Name: "gologin_connection_auth_error_total", Help: "Session tokens rejected by the connection."},
	{ID: goLogin.MetricSessionPersisted, Name: "gologin_session_persisted_total", Help: "Session records saved."},
	{ID: goLogin.MetricSessionPersistFailed, Name: "gologin_session_persist_failed_total", Help: "Session saves that failed without failing the flow."},
	{ID: goLogin.MetricSessionCleared, Name: "gologin_session_cleared_total", Help: "Session records cleared."},
	{ID: goLogin.MetricSessionRestored, Name: "gologin_session_restored_total", Help: "Persisted sessions resumed."},
	{ID: goLogin.MetricSessionRestoreEmpty, Name: "gologin_session_restore_empty_total", Help: "Restores that found no usable session."},
	{ID: goLogin.MetricRevocationDetected, Name: "gologin_revocation_detected_total", Help: "Server-side revocations observed by the watcher."},
	{ID: goLogin.MetricLogout, Name: "gologin_logout_total", Help: "Logout calls."},
	{ID: goLogin.MetricAccountCreated, Name: "gologin_account_created_total", Help: "Accounts created."},
	{ID: goLogin.MetricAccountRemoved, Name: "gologin_account_removed_total", Help: "Accounts removed."},
	{ID: goLogin.MetricPasswordChanged, Name: "gologin_password_changed_total", Help: "Passwords changed."},
	{ID: goLogin.MetricPasswordResetSent, Name: "gologin_password_reset_sent_total", Help: "Password reset emails requested."},
	{ID: goLogin.MetricAccountFlowFailure, Name: "gologin_account_flow_failure_total", Help: "Account flows that ended with an error."},
	{ID: goLogin.MetricFlowTimeout, Name: "gologin_flow_timeout_total", Help: "Flows that ended on their deadline."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goLogin.MetricFlowLatency, Name: "gologin_flow_latency_seconds", Help: "End-to-end flow latency."},
}

// HistogramBounds are the "le" labels of the latency buckets.
var HistogramBounds = []string{"0.01", "0.05", "0.1", "0.25", "0.5", "1", "5", "+Inf"}

// HistogramBoundSuffix renders HistogramBounds as instrument name suffixes.
var HistogramBoundSuffix = []string{"0_01", "0_05", "0_1", "0_25", "0_5", "1", "5", "inf"}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
