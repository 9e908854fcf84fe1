package consoles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameState(t *testing.T) {
	registry := New(time.Minute, time.Second)

	first := registry.Get("a")
	assert.Same(t, first, registry.Get("a"))
	assert.NotSame(t, first, registry.Get("b"))
	assert.Equal(t, 2, registry.Len())

	registry.Drop("a")
	assert.Equal(t, 1, registry.Len())
	assert.NotSame(t, first, registry.Get("a"))
}

func TestSweep(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	registry := New(10*time.Minute, time.Second)
	registry.now = func() time.Time { return clock }

	registry.Get("idle")
	clock = start.Add(8 * time.Minute)
	registry.Get("active")

	assert.Equal(t, 0, registry.Sweep(start.Add(9*time.Minute)))
	assert.Equal(t, 1, registry.Sweep(start.Add(10*time.Minute)))
	assert.Equal(t, 1, registry.Len())

	clock = start.Add(20 * time.Minute)
	registry.Get("active")
	assert.Equal(t, 0, registry.Sweep(start.Add(21*time.Minute)))
}

func TestRunEvictsOnShutdown(t *testing.T) {
	registry := New(time.Hour, time.Hour)
	registry.Get("a")
	registry.Get("b")

	ctx, cancel := context.WithCancel(context.Background())
	registry.Run(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return registry.Len() == 0
	}, time.Second, 10*time.Millisecond)
}
