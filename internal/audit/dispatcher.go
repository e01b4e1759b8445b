package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// Logger reports dropped events with their flow id. Nil discards.
	Logger *slog.Logger
}

// item is a queued event or, when flushed is set, a flush marker.
type item struct {
	event   Event
	flushed chan struct{}
}

// Dispatcher asynchronously forwards audit events to a sink, in emission order.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	ch        chan item
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher goroutine. It returns nil when cfg.Enabled is false; a nil
// Dispatcher accepts and ignores every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan item, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case it := <-d.ch:
			d.handle(it)
		case <-d.done:
			for {
				select {
				case it := <-d.ch:
					d.handle(it)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) handle(it item) {
	if it.flushed != nil {
		close(it.flushed)
		return
	}
	d.sink.Emit(context.Background(), it.event)
}

// Emit queues event. With DropIfFull a full buffer drops the event and counts it; otherwise
// Emit waits for space or for ctx to end.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- item{event: event}:
		case <-d.done:
		default:
			d.drop(ctx, event)
		}
		return
	}

	select {
	case d.ch <- item{event: event}:
	case <-ctx.Done():
		d.drop(ctx, event)
	case <-d.done:
	}
}

func (d *Dispatcher) drop(ctx context.Context, event Event) {
	n := d.dropped.Add(1)
	if d.cfg.Logger != nil {
		d.cfg.Logger.LogAttrs(ctx, slog.LevelWarn, "audit event dropped",
			slog.String("event_type", event.EventType),
			slog.String("flow_id", event.FlowID),
			slog.Uint64("dropped_total", n),
		)
	}
}

// Flush waits until every event emitted before the call has reached the sink, or ctx ends.
// It returns nil once the dispatcher is closed, since Close drains the queue.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	marker := item{flushed: make(chan struct{})}
	select {
	case d.ch <- marker:
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-marker.flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes buffered events and stops the dispatcher goroutine. It is idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns the number of events dropped for backpressure or an ended context.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
