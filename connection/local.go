package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goLogin/jwt"
)

// LocalOption configures a [Local] connection.
type LocalOption func(*Local)

// WithLatency delays every Authenticate call by d.
func WithLatency(d time.Duration) LocalOption {
	return func(l *Local) {
		l.latency = d
	}
}

// WithAuthData replaces the auth data reported on success. The default reports uid,
// provider and expires from the verified claims.
func WithAuthData(fn func(*jwt.SessionClaims) map[string]any) LocalOption {
	return func(l *Local) {
		l.authData = fn
	}
}

// Local is an in-process [Conn] that verifies session tokens with a [jwt.Manager].
//
// Local is safe for concurrent use. Listeners are invoked outside the internal lock, on the
// goroutine that caused the state change. Deliveries are serialized, so a listener never
// sees an older state after a newer one.
type Local struct {
	verifier *jwt.Manager
	latency  time.Duration
	authData func(*jwt.SessionClaims) map[string]any

	notifyMu   sync.Mutex
	mu         sync.Mutex
	authorized bool
	uid        string
	nextID     uint64
	listeners  map[uint64]func(bool)
	failNext   *Error
	revokeNext *Error
	authCalls  int
}

// NewLocal returns a Local connection verifying tokens with verifier.
func NewLocal(verifier *jwt.Manager, opts ...LocalOption) *Local {
	l := &Local{
		verifier:  verifier,
		authData:  defaultAuthData,
		listeners: make(map[uint64]func(bool)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultAuthData(claims *jwt.SessionClaims) map[string]any {
	data := map[string]any{
		"uid":      claims.UID,
		"provider": claims.Provider,
	}
	if claims.ExpiresAt != nil {
		data["expires"] = claims.ExpiresAt.Unix()
	}
	return data
}

// Authenticate verifies token. Expired tokens fail with [CodeExpiredToken]; every other
// rejection fails with [CodeInvalidToken].
func (l *Local) Authenticate(ctx context.Context, token string) Result {
	if l.latency > 0 {
		timer := time.NewTimer(l.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{Outcome: OutcomeFailed, Err: &Error{Code: CodeDisconnected, Details: ctx.Err().Error()}}
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{Outcome: OutcomeFailed, Err: &Error{Code: CodeDisconnected, Details: err.Error()}}
	}

	l.mu.Lock()
	l.authCalls++
	if scripted := l.failNext; scripted != nil {
		l.failNext = nil
		l.mu.Unlock()
		return Result{Outcome: OutcomeFailed, Err: scripted}
	}
	l.mu.Unlock()

	claims, err := l.verifier.Parse(token)
	if err != nil {
		code := CodeInvalidToken
		if errors.Is(err, jwt.ErrTokenExpired) {
			code = CodeExpiredToken
		}
		return Result{Outcome: OutcomeFailed, Err: &Error{Code: code, Details: err.Error()}}
	}

	l.mu.Lock()
	if scripted := l.revokeNext; scripted != nil {
		l.revokeNext = nil
		l.mu.Unlock()
		return Result{Outcome: OutcomeRevoked, Err: scripted}
	}
	l.mu.Unlock()

	l.setAuthorized(true, claims.UID)
	return Result{Outcome: OutcomeSuccess, AuthData: l.authData(claims)}
}

// Deauthenticate drops the current credentials.
func (l *Local) Deauthenticate(ctx context.Context) error {
	l.setAuthorized(false, "")
	return nil
}

// SubscribeAuthorized registers fn, calls it with the current state and returns its
// cancellation handle.
func (l *Local) SubscribeAuthorized(fn func(bool)) Subscription {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.listeners[id] = fn
	authorized := l.authorized
	l.mu.Unlock()

	fn(authorized)
	return &localSubscription{owner: l, id: id}
}

// Revoke simulates the backend revoking the active credentials, as it does when a token
// expires server-side or the account is removed.
func (l *Local) Revoke() {
	l.setAuthorized(false, "")
}

// FailNext makes the next Authenticate call fail with err before verification.
func (l *Local) FailNext(err *Error) {
	l.mu.Lock()
	l.failNext = err
	l.mu.Unlock()
}

// RevokeNext makes the next verified Authenticate call report a revocation with err.
func (l *Local) RevokeNext(err *Error) {
	l.mu.Lock()
	l.revokeNext = err
	l.mu.Unlock()
}

// Authorized reports the current authorization state and the uid it belongs to.
func (l *Local) Authorized() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.authorized, l.uid
}

// AuthCalls returns how many Authenticate calls reached the connection.
func (l *Local) AuthCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.authCalls
}

// Listeners returns the number of registered listeners.
func (l *Local) Listeners() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.listeners)
}

func (l *Local) setAuthorized(authorized bool, uid string) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	changed := l.authorized != authorized || l.uid != uid
	l.authorized = authorized
	l.uid = uid
	var notify []func(bool)
	if changed {
		notify = make([]func(bool), 0, len(l.listeners))
		for _, fn := range l.listeners {
			notify = append(notify, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range notify {
		fn(authorized)
	}
}

type localSubscription struct {
	owner *Local
	id    uint64
}

func (s *localSubscription) Unsubscribe() {
	s.owner.mu.Lock()
	delete(s.owner.listeners, s.id)
	s.owner.mu.Unlock()
}
