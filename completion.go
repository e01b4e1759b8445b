package goLogin

import (
	"context"
	"sync"
)

// AuthHandler receives the outcome of an identity flow. Exactly one argument is non-nil,
// except that CheckAuthStatus reports (nil, nil) when there is no session to restore.
type AuthHandler func(*Identity, error)

// CompletionHandler receives the outcome of a boolean flow.
type CompletionHandler func(bool, error)

// Pending is the single-assignment result of a flow.
//
// A Pending is resolved exactly once. The flow's handler, if any, is posted to the engine's
// [Dispatcher] after resolution and runs at most once.
type Pending[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

func (p *Pending[T]) resolve(v T, err error) bool {
	resolved := false
	p.once.Do(func() {
		p.value = v
		p.err = err
		close(p.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the flow completes or ctx ends. Ending ctx does not cancel the flow.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Resolved reports whether the result is available.
func (p *Pending[T]) Resolved() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Dispatcher runs handlers on the caller's execution context.
type Dispatcher interface {
	// Dispatch queues fn. It reports false when fn will never run.
	Dispatch(fn func()) bool
}

// LoopDispatcher is a serial handler queue drained by [LoopDispatcher.Run].
//
// Dispatch never blocks; the queue is unbounded.
type LoopDispatcher struct {
	mu        sync.Mutex
	queue     []func()
	closed    bool
	signal    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoopDispatcher returns an empty LoopDispatcher.
func NewLoopDispatcher() *LoopDispatcher {
	return &LoopDispatcher{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Dispatch implements [Dispatcher].
func (d *LoopDispatcher) Dispatch(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
	return true
}

// Run executes queued handlers on the calling goroutine until ctx ends or Close is called.
// Handlers queued before Close still run.
func (d *LoopDispatcher) Run(ctx context.Context) error {
	for {
		d.drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.signal:
		case <-d.done:
			d.drain()
			return nil
		}
	}
}

// RunPending executes the handlers queued so far and returns how many ran.
func (d *LoopDispatcher) RunPending() int {
	return d.drain()
}

// Close stops accepting handlers and makes Run return after draining.
func (d *LoopDispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.done)
	})
}

func (d *LoopDispatcher) drain() int {
	ran := 0
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()
		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}
