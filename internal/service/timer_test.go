package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFiresOnce(t *testing.T) {
	s := NewTimerService()
	t.Cleanup(s.Stop)

	var fired atomic.Int32
	done := make(chan struct{})
	s.Schedule("poll-1", 20*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestTimerCancelPreventsFiring(t *testing.T) {
	s := NewTimerService()
	t.Cleanup(s.Stop)

	var fired atomic.Int32
	s.Schedule("poll-1", 30*time.Millisecond, func() {
		fired.Add(1)
	})
	s.Cancel("poll-1")

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestTimerRescheduleReplaces(t *testing.T) {
	s := NewTimerService()
	t.Cleanup(s.Stop)

	var first, second atomic.Int32
	done := make(chan struct{})
	s.Schedule("poll-1", 30*time.Millisecond, func() {
		first.Add(1)
	})
	s.Schedule("poll-1", 30*time.Millisecond, func() {
		second.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replacement timer never fired")
	}
	require.Zero(t, first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestTimerCancelUnknownIsNoop(t *testing.T) {
	s := NewTimerService()
	s.Cancel("never-scheduled")
	s.Stop()
}

func TestTimerStopCancelsAll(t *testing.T) {
	s := NewTimerService()

	var fired atomic.Int32
	for _, id := range []string{"a", "b", "c"} {
		s.Schedule(id, 30*time.Millisecond, func() {
			fired.Add(1)
		})
	}
	s.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
