package uploader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerMonotonicAndReachesHundred(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(12*mib, 3, clock)

	var percents []float64
	for _, n := range []int64{5 * mib, 2 * mib, 5 * mib} {
		clock.Advance(time.Second)
		percents = append(percents, tracker.Observe(n).PercentComplete)
	}

	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.Equal(t, 100.0, percents[len(percents)-1])

	final := tracker.Snapshot()
	assert.Equal(t, int64(12*mib), final.BytesTransferred)
	assert.Equal(t, 3, final.PartsCompleted)
	assert.True(t, final.ETAKnown)
	assert.Zero(t, final.EstimatedSecondsRemaining)
}

func TestTrackerThroughputAndETA(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(100, 10, clock)

	clock.Advance(2 * time.Second)
	s := tracker.Observe(10)

	assert.InDelta(t, 10.0, s.PercentComplete, 1e-9)
	assert.InDelta(t, 5.0, s.ThroughputBytesPerSec, 1e-9)
	assert.True(t, s.ETAKnown)
	assert.InDelta(t, 18.0, s.EstimatedSecondsRemaining, 1e-9)
	assert.Equal(t, 1, s.PartsCompleted)
	assert.Equal(t, 10, s.PartsTotal)
}

func TestTrackerZeroElapsed(t *testing.T) {
	tracker := NewTracker(100, 2, newFakeClock())

	s := tracker.Observe(50)
	assert.Zero(t, s.ThroughputBytesPerSec)
	assert.False(t, s.ETAKnown)
	assert.Zero(t, s.EstimatedSecondsRemaining)

	s = tracker.Observe(50)
	assert.Equal(t, 100.0, s.PercentComplete)
	assert.True(t, s.ETAKnown, "nothing remains, so the estimate is known to be zero")
}

func TestTrackerClampsOverflow(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(10, 1, clock)
	clock.Advance(time.Second)

	tracker.Observe(8)
	s := tracker.Observe(8)
	require.Equal(t, int64(10), s.BytesTransferred)
	assert.Equal(t, 100.0, s.PercentComplete)
	assert.Equal(t, 1, s.PartsCompleted)
}

func TestTrackerInitialSnapshot(t *testing.T) {
	s := NewTracker(42, 1, nil).Snapshot()
	assert.Zero(t, s.PercentComplete)
	assert.Zero(t, s.BytesTransferred)
	assert.Equal(t, int64(42), s.TotalBytes)
	assert.False(t, s.ETAKnown)
}
