package goLogin

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goLogin/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditJSONSinkThroughEngine(t *testing.T) {
	var out lockedBuffer
	env := newTestEnv(t)
	cfg := testConfig(env.server.URL)
	engine, err := New().
		WithConfig(cfg).
		WithConnection(connection.NewLocal(env.tokens)).
		WithAuditSink(NewJSONWriterSink(&out)).
		Build()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = engine.LoginWithEmail(ctx, "nobody@example.com", "pw", nil).Wait(ctx)
	require.Error(t, err)
	require.NoError(t, engine.FlushAudit(ctx))
	defer engine.Close()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, AuditLoginFailure, ev["event_type"])
	assert.Equal(t, "UserDoesNotExist", ev["error"])
	assert.Equal(t, "password", ev["provider"])
	assert.Equal(t, "backend", ev["metadata"].(map[string]any)["failure"])
	assert.NotContains(t, lines[0], "pw\"", "credentials never reach audit")
}

func TestAuditDropsWhenFull(t *testing.T) {
	env := newTestEnv(t)
	sink := &gateSink{gate: make(chan struct{})}
	cfg := testConfig(env.server.URL)
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true
	engine, err := New().
		WithConfig(cfg).
		WithConnection(connection.NewLocal(env.tokens)).
		WithAuditSink(sink).
		Build()
	require.NoError(t, err)
	defer func() {
		close(sink.gate)
		engine.Close()
	}()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := engine.LoginWithEmail(ctx, "bad", "pw", nil).Wait(ctx)
		require.ErrorIs(t, err, ErrInvalidEmail)
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, engine.AuditDropped(), uint64(3))
}
