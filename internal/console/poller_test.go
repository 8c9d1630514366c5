package console

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoller_ImmediateAndTriggeredFetch(t *testing.T) {
	var n atomic.Int32
	p := NewPoller(time.Hour, func(context.Context) { n.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { p.Run(ctx); close(done) }()

	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)

	p.Trigger()
	assert.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run tidak berhenti setelah context dibatalkan")
	}
}

func TestPoller_Interval(t *testing.T) {
	var n atomic.Int32
	p := NewPoller(10*time.Millisecond, func(context.Context) { n.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPoller_DisableStopsAndEnableFetchesImmediately(t *testing.T) {
	var n atomic.Int32
	p := NewPoller(10*time.Millisecond, func(context.Context) { n.Add(1) })
	p.SetEnabled(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load(), "auto-refresh mati, tidak boleh ada fetch periodik")

	p.SetEnabled(true)
	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 2*time.Millisecond)
	assert.True(t, p.Enabled())
}
