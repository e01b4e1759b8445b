package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatalf("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatalf("nil dispatcher must report no drops")
	}
}

func TestDispatcherFlushesOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)
	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: "login_success"})
	}
	d.Close()
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected 50 events, got %d", got)
	}
	d.Emit(context.Background(), Event{EventType: "late"})
	if got := sink.count.Load(); got != 50 {
		t.Fatalf("emit after close must be ignored, got %d", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// The first event is taken by the dispatcher goroutine, which then blocks in the sink.
	d.Emit(context.Background(), Event{EventType: "a"})
	deadline := time.Now().Add(time.Second)
	for len(d.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), Event{EventType: "b"})
	d.Emit(context.Background(), Event{EventType: "c"})
	d.Emit(context.Background(), Event{EventType: "d"})

	if got := d.Dropped(); got != 2 {
		t.Fatalf("expected 2 drops, got %d", got)
	}
	close(sink.gate)
	d.Close()
}

func TestDispatcherLogsDroppedFlowID(t *testing.T) {
	var logs bytes.Buffer
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
		Logger:     slog.New(slog.NewJSONHandler(&logs, nil)),
	}, sink)

	d.Emit(context.Background(), Event{EventType: "a"})
	deadline := time.Now().Add(time.Second)
	for len(d.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), Event{EventType: "b", FlowID: "f-b"})
	d.Emit(context.Background(), Event{EventType: "login_failure", FlowID: "f-c"})
	close(sink.gate)
	d.Close()

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 drop record, got %d: %q", len(lines), logs.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["level"] != "WARN" || rec["flow_id"] != "f-c" || rec["event_type"] != "login_failure" {
		t.Fatalf("unexpected drop record: %v", rec)
	}
	if rec["dropped_total"] != float64(1) {
		t.Fatalf("expected dropped_total 1, got %v", rec["dropped_total"])
	}
}

func TestDispatcherFlush(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	for i := 0; i < 20; i++ {
		d.Emit(context.Background(), Event{EventType: "login_success"})
	}
	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := sink.count.Load(); got != 20 {
		t.Fatalf("expected 20 events after flush, got %d", got)
	}
}

func TestDispatcherFlushHonoursContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "a"})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Flush(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	var nilDispatcher *Dispatcher
	if err := nilDispatcher.Flush(context.Background()); err != nil {
		t.Fatalf("nil dispatcher flush: %v", err)
	}
}

func TestDispatcherBlockingEmitHonoursContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "a"})
	deadline := time.Now().Add(time.Second)
	for len(d.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), Event{EventType: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	d.Emit(ctx, Event{EventType: "c"})
	if time.Since(start) > time.Second {
		t.Fatalf("emit did not return on context end")
	}
	if d.Dropped() != 0 {
		t.Fatalf("blocking mode never counts drops")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{
		Timestamp: time.Unix(0, 0).UTC(),
		EventType: "logout",
		FlowID:    "f1",
		UID:       "anonymous:1",
		Provider:  "anonymous",
		Success:   true,
	})
	sink.Emit(context.Background(), Event{EventType: "login_failure", Error: "InvalidPassword"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if first["event_type"] != "logout" || first["flow_id"] != "f1" {
		t.Fatalf("unexpected event: %v", first)
	}

	var nilSink *JSONWriterSink
	nilSink.Emit(context.Background(), Event{})
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(0)
	sink.Emit(context.Background(), Event{EventType: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Emit(ctx, Event{EventType: "b"})

	if ev := <-sink.Events(); ev.EventType != "a" {
		t.Fatalf("expected a, got %q", ev.EventType)
	}
	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event %q", ev.EventType)
	default:
	}
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
	sink.Emit(context.Background(), Event{EventType: "login_failure", Provider: "password", Error: "InvalidPassword"})
	sink.Emit(context.Background(), Event{EventType: "logout", Success: true, UID: "u1", Metadata: map[string]string{"reason": "user"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d", len(lines))
	}
	var failed, ok map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &failed); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &ok); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if failed["level"] != "WARN" || failed["error"] != "InvalidPassword" || failed["provider"] != "password" {
		t.Fatalf("unexpected failure record: %v", failed)
	}
	if ok["level"] != "INFO" || ok["uid"] != "u1" || ok["reason"] != "user" {
		t.Fatalf("unexpected success record: %v", ok)
	}

	var nilSink *SlogSink
	nilSink.Emit(context.Background(), Event{})
}
