package rescore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchdogNextDelayExponentialWithCap(t *testing.T) {
	w := newWatchdog(10*time.Millisecond, 100*time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, w.nextDelay(1))
	assert.Equal(t, 20*time.Millisecond, w.nextDelay(2))
	assert.Equal(t, 40*time.Millisecond, w.nextDelay(3))
	assert.Equal(t, 80*time.Millisecond, w.nextDelay(4))
	assert.Equal(t, 100*time.Millisecond, w.nextDelay(5)) // capped
	assert.Equal(t, 100*time.Millisecond, w.nextDelay(20))
}

func TestWatchdogSuspendResume(t *testing.T) {
	w := newWatchdog(time.Millisecond, time.Second)
	w.SetReconnectSuspended(true)
	assert.True(t, w.isSuspended())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan bool, 1)
	go func() { done <- w.waitResume(ctx) }()

	select {
	case <-done:
		t.Fatal("waitResume returned before resume")
	case <-time.After(10 * time.Millisecond):
	}

	w.ScheduleReconnect()
	require.True(t, <-done)
	assert.False(t, w.isSuspended())
}

func TestWatchdogListenOnChannelInactive(t *testing.T) {
	w := newWatchdog(time.Millisecond, time.Second)
	assert.True(t, w.isListening())
	w.SetListenOnChannelInactive(false)
	assert.False(t, w.isListening())
}
