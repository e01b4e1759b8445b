package goLogin

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goLogin/connection"
	"github.com/MrEthical07/goLogin/internal/audit"
	"github.com/MrEthical07/goLogin/internal/flows"
	"github.com/MrEthical07/goLogin/session"
	"github.com/MrEthical07/goLogin/transport"
	"github.com/google/uuid"
)

// Engine runs login flows against the auth backend and keeps the persisted session in step
// with the backend connection.
//
// Engine instances are created by [Builder.Build] and are safe for concurrent use. Every flow
// returns a [Pending] immediately; its handler runs on the engine's [Dispatcher].
type Engine struct {
	config  Config
	request flows.RequestConfig
	fetcher transport.Fetcher
	conn    connection.Conn
	state   *sessionState

	dispatcher Dispatcher
	ownedLoop  *LoopDispatcher
	loopDone   chan struct{}

	audit   *audit.Dispatcher
	metrics *Metrics
	logger  *slog.Logger

	stop     context.Context
	stopFlow context.CancelFunc

	mu        sync.Mutex
	closed    bool
	inflight  sync.WaitGroup
	closeOnce sync.Once
}

// Close cancels in-flight flows, waits for them to complete, then stops the revocation
// watcher, the engine-owned dispatcher and the audit dispatcher. Flows started after Close
// complete with [KindUnknown] wrapping [ErrEngineClosed]; when the dispatcher no longer
// accepts work their handler runs on the calling goroutine before the flow method returns.
// Close is idempotent. It must not be called from a handler running on the engine-owned
// dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		e.stopFlow()
		e.inflight.Wait()
		e.state.close()

		if e.ownedLoop != nil {
			e.ownedLoop.Close()
			<-e.loopDone
		}
		e.audit.Close()
	})
}

// CurrentSession returns a copy of the session record the engine last committed, if any.
func (e *Engine) CurrentSession() (session.Record, bool) {
	return e.state.snapshot()
}

// FlushAudit waits until every audit event emitted so far has reached the sink, or ctx ends.
// It is a no-op when auditing is disabled.
func (e *Engine) FlushAudit(ctx context.Context) error {
	if e == nil || e.audit == nil {
		return nil
	}
	return e.audit.Flush(ctx)
}

// AuditDropped returns the number of audit events dropped for backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

type flowFunc[T any] func(ctx context.Context, log *slog.Logger) (T, error)

// runFlow starts body on its own goroutine and delivers its result through a Pending.
func runFlow[T any](e *Engine, ctx context.Context, name string, handler func(T, error), body flowFunc[T]) *Pending[T] {
	p := newPending[T]()
	if ctx == nil {
		ctx = context.Background()
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		var zero T
		err := newError(KindUnknown, ErrEngineClosed)
		if p.resolve(zero, err) && handler != nil {
			if !e.dispatcher.Dispatch(func() { handler(zero, err) }) {
				handler(zero, err)
			}
		}
		return p
	}
	e.inflight.Add(1)
	e.mu.Unlock()

	flowID, ok := FlowIDFromContext(ctx)
	if !ok {
		flowID = uuid.NewString()
		ctx = WithFlowID(ctx, flowID)
	}
	log := e.logger.With("flow", name, "flow_id", flowID)

	go func() {
		defer e.inflight.Done()

		flowCtx, cancel := e.flowContext(ctx)
		defer cancel()

		log.Debug("flow started")
		start := time.Now()
		v, err := body(flowCtx, log)
		e.metrics.Observe(MetricFlowLatency, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			e.metricInc(MetricFlowTimeout)
			log.Warn("flow timed out", "timeout", e.config.FlowTimeout)
		}
		deliver(e, p, handler, v, err, log)
	}()
	return p
}

// flowContext bounds ctx by the flow timeout and ties it to the engine lifetime.
func (e *Engine) flowContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var cancel context.CancelFunc
	if e.config.FlowTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.config.FlowTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	stop := context.AfterFunc(e.stop, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func deliver[T any](e *Engine, p *Pending[T], handler func(T, error), v T, err error, log *slog.Logger) {
	if !p.resolve(v, err) || handler == nil {
		return
	}
	if !e.dispatcher.Dispatch(func() { handler(v, err) }) {
		log.Warn("handler dropped: dispatcher closed")
	}
}

// failureError maps a flow failure onto the public error taxonomy.
func failureError(f *flows.Failure) error {
	switch f.Kind {
	case flows.FailureInvalidEmail:
		return newError(KindInvalidEmail, nil)
	case flows.FailureInvalidPassword:
		return newError(KindInvalidPassword, nil)
	case flows.FailureBadProviderToken:
		return newError(KindBadProviderToken, nil)
	case flows.FailureBackend:
		return newError(ClassifyResponse(f.Payload), nil)
	case flows.FailureConnection:
		if f.Conn == nil {
			return newError(KindUnknown, nil)
		}
		return newError(ClassifyConnection(f.Conn), f.Conn)
	default:
		return newError(KindUnknown, f.Cause)
	}
}

func (e *Engine) requestDeps() flows.RequestDeps {
	return flows.RequestDeps{
		Fetch:  e.fetcher.Fetch,
		Config: e.request,
	}
}

// accountRequestDeps sends create/remove/update/reset requests at most once when the
// fetcher supports it. A retry after a committed change would report a false failure.
func (e *Engine) accountRequestDeps() flows.RequestDeps {
	deps := e.requestDeps()
	if once, ok := e.fetcher.(transport.OnceFetcher); ok {
		deps.Fetch = once.FetchOnce
	}
	return deps
}

func (e *Engine) exchangeDeps(log *slog.Logger) flows.ExchangeDeps {
	return flows.ExchangeDeps{
		Authenticate: e.conn.Authenticate,
		Commit:       e.state.commit,
		Discard: func(ctx context.Context) {
			if err := e.state.clear(ctx); err != nil {
				log.Warn("session clear failed", "error", err)
				return
			}
			e.metricInc(MetricSessionCleared)
		},
	}
}

func (e *Engine) loginDeps(log *slog.Logger) flows.LoginDeps {
	return flows.LoginDeps{
		Request:  e.requestDeps(),
		Exchange: e.exchangeDeps(log),
	}
}

// finishExchange turns an exchange result into an identity, recording metrics and audit.
func (e *Engine) finishExchange(ctx context.Context, log *slog.Logger, provider Provider, res flows.ExchangeResult) (*Identity, error) {
	if f := res.Failure; f != nil {
		switch {
		case f.Kind == flows.FailureConnection && f.Revoked:
			e.metricInc(MetricConnectionAuthRevoked)
		case f.Kind == flows.FailureConnection:
			e.metricInc(MetricConnectionAuthError)
		}
		err := failureError(f)
		e.loginFailed(ctx, log, provider, f, err)
		return nil, err
	}

	e.metricInc(MetricConnectionAuthSuccess)
	if res.PersistErr != nil {
		e.metricInc(MetricSessionPersistFailed)
		log.Warn("session persist failed", "error", res.PersistErr)
	} else if e.state.store != nil {
		e.metricInc(MetricSessionPersisted)
	}

	var id *Identity
	if provider == ProviderPassword {
		id = newPasswordIdentity(res.Fields.UserID, res.Fields.UID, res.Token, res.Fields.Email)
	} else {
		id = newDelegatedIdentity(res.Fields.UserID, res.Fields.UID, provider, res.Token, res.Fields.ThirdParty)
	}

	e.metricInc(MetricLoginSuccess)
	log.Info("login succeeded", "provider", provider.String(), "uid", id.UID())
	e.emitAudit(ctx, AuditLoginSuccess, id.UID(), provider, true, nil, nil)
	return id, nil
}

func (e *Engine) loginFailed(ctx context.Context, log *slog.Logger, provider Provider, f *flows.Failure, err error) {
	if f.Local() {
		e.metricInc(MetricValidationRejected)
	}
	e.metricInc(MetricLoginFailure)
	log.Debug("login failed", "provider", provider.String(), "failure", f.Kind.String(), "error", err)
	e.emitAudit(ctx, AuditLoginFailure, "", provider, false, err, map[string]string{"failure": f.Kind.String()})
}

// handleRevoked runs on the connection's notification goroutine after a watched session was
// revoked and cleared.
func (e *Engine) handleRevoked(rec session.Record, clearErr error) {
	e.metricInc(MetricRevocationDetected)
	if clearErr != nil {
		e.logger.Warn("session clear after revocation failed", "error", clearErr)
	} else {
		e.metricInc(MetricSessionCleared)
	}
	uid, provider := recordOwner(rec, true)
	e.emitAudit(context.Background(), AuditSessionRevoked, uid, provider, true, nil, nil)
	e.logger.Info("session revoked", "uid", uid, "provider", provider.String())
}
