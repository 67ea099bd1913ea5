package storageopt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthContext(t *testing.T) {
	ctx, cancel := HealthContext(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	ctx2, cancel2 := HealthContext(context.Background(), time.Second)
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.True(t, ok)
}

func TestHealthCounter(t *testing.T) {
	var h HealthCounter
	h.IncPing()
	h.IncPing()
	h.IncPingError()
	assert.Equal(t, int64(2), h.PingCount())
	assert.Equal(t, int64(1), h.PingErrors())
}

func TestSlowQueryDetector(t *testing.T) {
	var seen []string
	d := NewSlowQueryDetector(100*time.Millisecond, func(_ context.Context, op string, _ time.Duration) {
		seen = append(seen, op)
	})
	ctx := context.Background()

	assert.False(t, d.Observe(ctx, "fast", 99*time.Millisecond))
	assert.True(t, d.Observe(ctx, "edge", 100*time.Millisecond))
	assert.True(t, d.Observe(ctx, "slow", time.Second))
	assert.Equal(t, []string{"edge", "slow"}, seen)
	assert.Equal(t, int64(2), d.Count())
}

func TestSlowQueryDetector_Disabled(t *testing.T) {
	d := NewSlowQueryDetector[string](0, nil)
	assert.False(t, d.Observe(context.Background(), "x", time.Hour))

	var nilDetector *SlowQueryDetector[string]
	assert.False(t, nilDetector.Observe(context.Background(), "x", time.Hour))
	assert.Zero(t, nilDetector.Count())
}
