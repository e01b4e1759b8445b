package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goLogin/session"
)

// RestoreAction is what a restore did with the persisted record.
type RestoreAction int

const (
	// RestoreEmpty means nothing usable was persisted, or the store could not be read.
	RestoreEmpty RestoreAction = iota
	// RestoreDiscarded means the record was unusable and was cleared.
	RestoreDiscarded
	// RestoreResumed means the stored token was re-exchanged.
	RestoreResumed
)

// RestoreResult is the outcome of [RunRestore].
type RestoreResult struct {
	Action   RestoreAction
	Provider string
	Exchange ExchangeResult
	// LoadErr is a store failure other than absence or corruption.
	LoadErr error
}

// RunRestore re-exchanges the persisted session, if any.
func RunRestore(ctx context.Context, deps RestoreDeps) RestoreResult {
	rec, err := deps.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotFound):
		return RestoreResult{Action: RestoreEmpty}
	case errors.Is(err, session.ErrCorruptRecord):
		deps.Discard(ctx)
		return RestoreResult{Action: RestoreDiscarded}
	default:
		return RestoreResult{Action: RestoreEmpty, LoadErr: err}
	}

	if rec.Token == "" || rec.UserData == nil {
		deps.Discard(ctx)
		return RestoreResult{Action: RestoreDiscarded}
	}
	provider, ok := rec.Provider()
	if !ok || !deps.KnownProvider(provider) {
		deps.Discard(ctx)
		return RestoreResult{Action: RestoreDiscarded, Provider: provider}
	}

	ex := RunExchange(ctx, rec.Token, rec.UserData, IsPasswordProvider(provider), deps.Exchange)
	return RestoreResult{Action: RestoreResumed, Provider: provider, Exchange: ex}
}
