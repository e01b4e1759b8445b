package goLogin

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/goLogin/internal/flows"
	"github.com/MrEthical07/goLogin/session"
)

// CheckAuthStatus resumes the persisted session, if any, by re-authenticating its token.
//
// The handler receives (nil, nil) when nothing usable is persisted. A record that cannot be
// decoded, or that lacks a token, user data or a known provider, is cleared first.
func (e *Engine) CheckAuthStatus(ctx context.Context, handler AuthHandler) *Pending[*Identity] {
	return runFlow[*Identity](e, ctx, "check_auth_status", handler, func(ctx context.Context, log *slog.Logger) (*Identity, error) {
		exchange := e.exchangeDeps(log)
		res := flows.RunRestore(ctx, flows.RestoreDeps{
			Load:          e.state.load,
			Discard:       exchange.Discard,
			KnownProvider: knownProvider,
			Exchange:      exchange,
		})

		switch res.Action {
		case flows.RestoreEmpty:
			e.metricInc(MetricSessionRestoreEmpty)
			if res.LoadErr != nil {
				log.Warn("session load failed", "error", res.LoadErr)
			}
			return nil, nil
		case flows.RestoreDiscarded:
			e.metricInc(MetricSessionRestoreEmpty)
			log.Info("discarded unusable session record", "provider", res.Provider)
			return nil, nil
		}

		provider, err := ParseProvider(res.Provider)
		if err != nil {
			return nil, newError(KindUnknown, err)
		}
		id, err := e.finishExchange(ctx, log, provider, res.Exchange)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricSessionRestored)
		e.emitAudit(ctx, AuditSessionRestored, id.UID(), provider, true, nil, nil)
		return id, nil
	})
}

// Logout drops the connection's credentials, cancels the revocation watcher and clears the
// persisted session. It is idempotent. Only a failure to clear the store is returned.
func (e *Engine) Logout(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rec, had := e.state.snapshot()

	e.state.detach()
	if err := e.conn.Deauthenticate(ctx); err != nil {
		e.logger.Warn("connection deauthenticate failed", "error", err)
	}
	err := e.state.clear(ctx)

	e.metricInc(MetricLogout)
	if err != nil {
		e.logger.Warn("session clear failed", "error", err)
	} else {
		e.metricInc(MetricSessionCleared)
	}

	uid, provider := recordOwner(rec, had)
	e.emitAudit(ctx, AuditLogout, uid, provider, err == nil, err, nil)
	e.logger.Info("logged out", "uid", uid)
	return err
}

// recordOwner reads uid and provider from a committed record.
func recordOwner(rec session.Record, ok bool) (string, Provider) {
	if !ok {
		return "", ProviderInvalid
	}
	uid, _ := rec.UserData["uid"].(string)
	name, _ := rec.Provider()
	p, _ := ParseProvider(name)
	return uid, p
}
