package goLogin

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingResolvesOnce(t *testing.T) {
	p := newPending[int]()
	assert.False(t, p.Resolved())

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if p.resolve(i, nil) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, p.Resolved())
	first, err := p.Wait(context.Background())
	require.NoError(t, err)
	again, _ := p.Wait(context.Background())
	assert.Equal(t, first, again)

	assert.False(t, p.resolve(-1, errors.New("late")))
	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestPendingWaitHonoursContext(t *testing.T) {
	p := newPending[string]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, v)
	assert.False(t, p.Resolved())
}

func TestLoopDispatcherRunsInOrder(t *testing.T) {
	d := NewLoopDispatcher()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, d.Dispatch(func() { got = append(got, i) }))
	}
	assert.Equal(t, 5, d.RunPending())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Zero(t, d.RunPending())
}

func TestLoopDispatcherNestedDispatch(t *testing.T) {
	d := NewLoopDispatcher()
	var order []string
	d.Dispatch(func() {
		order = append(order, "outer")
		d.Dispatch(func() { order = append(order, "inner") })
	})
	assert.Equal(t, 2, d.RunPending())
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoopDispatcherRunAndClose(t *testing.T) {
	d := NewLoopDispatcher()
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	ran := make(chan struct{})
	d.Dispatch(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not run")
	}

	d.Close()
	d.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.False(t, d.Dispatch(func() {}))
}

func TestLoopDispatcherRunStopsOnContext(t *testing.T) {
	d := NewLoopDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Run(ctx), context.Canceled)
}
