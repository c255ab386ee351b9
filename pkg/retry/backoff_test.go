package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedBackoff(t *testing.T) {
	fb := NewFixedBackoff(60 * time.Second)

	assert.Equal(t, time.Duration(0), fb.NextDelay(0))
	assert.Equal(t, 60*time.Second, fb.NextDelay(1))
	assert.Equal(t, 60*time.Second, fb.NextDelay(2))
	assert.Equal(t, 60*time.Second, fb.NextDelay(100), "the delay never grows")

	fb.Reset()
	assert.Equal(t, 60*time.Second, fb.NextDelay(1))
}

func TestExponentialBackoff(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0,
	}

	assert.Equal(t, time.Duration(0), eb.NextDelay(0))
	assert.Equal(t, time.Second, eb.NextDelay(1))
	assert.Equal(t, 2*time.Second, eb.NextDelay(2))
	assert.Equal(t, 4*time.Second, eb.NextDelay(3))
	assert.Equal(t, 8*time.Second, eb.NextDelay(4))
	assert.Equal(t, 10*time.Second, eb.NextDelay(5), "delay is capped at MaxDelay")
	assert.Equal(t, 10*time.Second, eb.NextDelay(20))
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	eb := DefaultExponentialBackoff()

	for attempt := 1; attempt <= 10; attempt++ {
		for i := 0; i < 50; i++ {
			delay := eb.NextDelay(attempt)
			assert.GreaterOrEqual(t, delay, time.Duration(0))
			// MaxDelay plus full jitter is the hard ceiling
			maxWithJitter := time.Duration(float64(eb.MaxDelay) * (1 + eb.JitterFactor))
			assert.LessOrEqual(t, delay, maxWithJitter)
		}
	}
}

func TestWait(t *testing.T) {
	start := time.Now()
	err := Wait(context.Background(), 20*time.Millisecond)
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestWaitZeroDelay(t *testing.T) {
	start := time.Now()
	err := Wait(context.Background(), 0)

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Wait(ctx, time.Minute)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, elapsed, time.Minute)
}
