package dbus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Fires(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	fired := make(chan uint32, 1)
	require.True(t, s.Schedule(1, 5*time.Millisecond, func() { fired <- 1 }))
	assert.True(t, s.Scheduled(1))

	select {
	case id := <-fired:
		assert.Equal(t, uint32(1), id)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire")
	}

	assert.Eventually(t, func() bool { return !s.Scheduled(1) && s.Pending() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestScheduler_ReplaceKeepsEarlierJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var count atomic.Int32
	s.Schedule(1, 50*time.Millisecond, func() { count.Add(1) })
	s.Schedule(1, 60*time.Millisecond, func() { count.Add(1) })
	assert.Equal(t, 2, s.Pending())

	assert.Eventually(t, func() bool { return count.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, s.Scheduled(1))
}

func TestScheduler_Stop(t *testing.T) {
	s := NewScheduler()

	var count atomic.Int32
	s.Schedule(1, 20*time.Millisecond, func() { count.Add(1) })
	s.Schedule(2, 20*time.Millisecond, func() { count.Add(1) })

	s.Stop()
	s.Stop()

	assert.Zero(t, s.Pending())
	assert.False(t, s.Schedule(3, time.Millisecond, func() { count.Add(1) }))

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, count.Load())
}
