package timers

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimingWheel_FiresOnce(t *testing.T) {
	tw := newWheel(100*time.Millisecond, 8)

	var fired int
	tw.AddTimer("a", 300*time.Millisecond, func() { fired++ })

	tw.advance(200 * time.Millisecond)
	assert.Equal(t, 0, fired)

	tw.advance(100 * time.Millisecond)
	assert.Equal(t, 1, fired)

	tw.advance(2 * time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, tw.Len())
}

func TestTimingWheel_IntervalLongerThanWheel(t *testing.T) {
	tw := newWheel(100*time.Millisecond, 4)

	var fired bool
	tw.AddTimer("long", time.Second, func() { fired = true })

	tw.advance(900 * time.Millisecond)
	assert.False(t, fired)

	tw.advance(100 * time.Millisecond)
	assert.True(t, fired)
}

func TestTimingWheel_UpdateRestartsFromNow(t *testing.T) {
	tw := newWheel(100*time.Millisecond, 16)

	var fired bool
	tw.AddTimer("gift", 500*time.Millisecond, func() { fired = true })

	tw.advance(400 * time.Millisecond)
	require.True(t, tw.UpdateTimer("gift", 500*time.Millisecond))

	tw.advance(400 * time.Millisecond)
	assert.False(t, fired)

	tw.advance(100 * time.Millisecond)
	assert.True(t, fired)

	assert.False(t, tw.UpdateTimer("gift", time.Second))
}

func TestTimingWheel_Remove(t *testing.T) {
	tw := newWheel(100*time.Millisecond, 8)

	var fired bool
	tw.AddTimer("x", 200*time.Millisecond, func() { fired = true })
	tw.RemoveTimer("x")
	tw.RemoveTimer("missing")

	tw.advance(time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, tw.Len())
}

func TestTimingWheel_AddReplaces(t *testing.T) {
	tw := newWheel(100*time.Millisecond, 8)

	var got []string
	tw.AddTimer("id", 100*time.Millisecond, func() { got = append(got, "first") })
	tw.AddTimer("id", 300*time.Millisecond, func() { got = append(got, "second") })
	assert.Equal(t, 1, tw.Len())

	tw.advance(time.Second)
	assert.Equal(t, []string{"second"}, got)
}

func TestTimingWheel_TaskMaySchedule(t *testing.T) {
	tw := newWheel(100*time.Millisecond, 8)

	var chained bool
	tw.AddTimer("outer", 100*time.Millisecond, func() {
		tw.AddTimer("inner", 100*time.Millisecond, func() { chained = true })
	})

	tw.advance(100 * time.Millisecond)
	assert.False(t, chained)
	assert.Equal(t, 1, tw.Len())

	tw.advance(100 * time.Millisecond)
	assert.True(t, chained)
}

func TestTimingWheel_Ticker(t *testing.T) {
	tw := NewTimingWheel(5*time.Millisecond, 64)
	defer tw.Stop()

	var fired atomic.Bool
	tw.AddTimer("real", 20*time.Millisecond, func() { fired.Store(true) })

	assert.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
}

func TestTimingWheel_StopIsIdempotent(t *testing.T) {
	tw := NewTimingWheel(5*time.Millisecond, 8)
	tw.Stop()
	tw.Stop()
}
