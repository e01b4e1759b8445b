package goLogin

import (
	"context"
	"errors"
	"sync"

	"github.com/MrEthical07/goLogin/connection"
	"github.com/MrEthical07/goLogin/session"
)

// sessionState owns the persisted record, its in-memory mirror and the revocation watcher.
//
// Every save bumps generation. A watcher only acts while its generation is current, so a late
// revocation from an older subscription never clears a newer session.
type sessionState struct {
	mu         sync.Mutex
	store      session.Store
	conn       connection.Conn
	current    *session.Record
	generation uint64
	watch      *watcher
	closed     bool

	onRevoked func(rec session.Record, clearErr error)
}

func newSessionState(store session.Store, conn connection.Conn, onRevoked func(session.Record, error)) *sessionState {
	return &sessionState{
		store:     store,
		conn:      conn,
		onRevoked: onRevoked,
	}
}

// watcher is one authorization subscription. Its Unsubscribe runs exactly once.
type watcher struct {
	gen uint64

	mu        sync.Mutex
	sub       connection.Subscription
	cancelled bool
}

func (w *watcher) attach(sub connection.Subscription) {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	w.sub = sub
	w.mu.Unlock()
}

// cancel reports whether this call performed the cancellation.
func (w *watcher) cancel() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return false
	}
	w.cancelled = true
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
	return true
}

// commit stores rec, replaces the watcher and returns the save error, if any.
func (s *sessionState) commit(ctx context.Context, rec session.Record) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	previous := s.watch
	s.watch = nil
	mirror := rec.Clone()
	s.current = &mirror
	var saveErr error
	if s.store != nil {
		saveErr = s.store.Save(context.WithoutCancel(ctx), rec)
	}
	closed := s.closed
	s.mu.Unlock()

	previous.cancel()
	if closed {
		return saveErr
	}

	w := &watcher{gen: gen}
	w.attach(s.conn.SubscribeAuthorized(func(authorized bool) {
		if !authorized {
			s.revoke(w)
		}
	}))

	s.mu.Lock()
	install := s.generation == gen && !s.closed
	if install {
		s.watch = w
	}
	s.mu.Unlock()
	if !install {
		w.cancel()
	}
	return saveErr
}

// revoke handles a revocation observed by w.
func (s *sessionState) revoke(w *watcher) {
	if !w.cancel() {
		return
	}
	s.mu.Lock()
	if s.generation != w.gen || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.generation++
	rec := *s.current
	s.current = nil
	if s.watch == w {
		s.watch = nil
	}
	clearErr := s.clearStoreLocked(context.Background())
	s.mu.Unlock()

	if s.onRevoked != nil {
		s.onRevoked(rec, clearErr)
	}
}

// clear drops the mirror, the persisted record and the watcher of the cleared session.
func (s *sessionState) clear(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	s.current = nil
	w := s.watch
	s.watch = nil
	err := s.clearStoreLocked(context.WithoutCancel(ctx))
	s.mu.Unlock()

	w.cancel()
	return err
}

// detach cancels the active watcher and invalidates any in-flight one.
func (s *sessionState) detach() {
	s.mu.Lock()
	s.generation++
	w := s.watch
	s.watch = nil
	s.mu.Unlock()
	w.cancel()
}

// load reads the persisted record. Without a store it reports session.ErrNotFound.
func (s *sessionState) load(ctx context.Context) (session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return session.Record{}, session.ErrNotFound
	}
	return s.store.Load(ctx)
}

func (s *sessionState) snapshot() (session.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return session.Record{}, false
	}
	return s.current.Clone(), true
}

// close cancels the watcher. Later commits persist but install no watcher.
func (s *sessionState) close() {
	s.mu.Lock()
	s.closed = true
	s.generation++
	w := s.watch
	s.watch = nil
	s.mu.Unlock()
	w.cancel()
}

func (s *sessionState) clearStoreLocked(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return nil
}
