package uploader

import (
	"sync"
	"time"
)

// Clock abstracts time for the progress tracker.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Snapshot is the derived progress of a session at one instant.
//
// When throughput is still zero and bytes remain, ETAKnown is false and
// EstimatedSecondsRemaining must be ignored.
type Snapshot struct {
	PercentComplete           float64 `json:"percentComplete"`
	BytesTransferred          int64   `json:"bytesTransferred"`
	TotalBytes                int64   `json:"totalBytes"`
	ThroughputBytesPerSec     float64 `json:"throughputBytesPerSec"`
	EstimatedSecondsRemaining float64 `json:"estimatedSecondsRemaining"`
	ETAKnown                  bool    `json:"etaKnown"`
	PartsCompleted            int     `json:"partsCompleted"`
	PartsTotal                int     `json:"partsTotal"`
}

// Tracker accumulates completed bytes and derives Snapshots from them.
type Tracker struct {
	mu         sync.Mutex
	clock      Clock
	startedAt  time.Time
	totalBytes int64
	partsTotal int
	bytes      int64
	parts      int
}

// NewTracker starts the session clock now.
func NewTracker(totalBytes int64, partsTotal int, clock Clock) *Tracker {
	if clock == nil {
		clock = systemClock{}
	}
	return &Tracker{
		clock:      clock,
		startedAt:  clock.Now(),
		totalBytes: totalBytes,
		partsTotal: partsTotal,
	}
}

// Observe records one completed part of n bytes.
func (t *Tracker) Observe(n int64) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n > 0 {
		t.bytes = min(t.bytes+n, t.totalBytes)
	}
	if t.parts < t.partsTotal {
		t.parts++
	}
	return t.snapshotLocked()
}

// Snapshot derives progress without recording anything.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	s := Snapshot{
		BytesTransferred: t.bytes,
		TotalBytes:       t.totalBytes,
		PartsCompleted:   t.parts,
		PartsTotal:       t.partsTotal,
	}

	if t.totalBytes > 0 {
		s.PercentComplete = min(max(100*float64(t.bytes)/float64(t.totalBytes), 0), 100)
	}

	if elapsed := t.clock.Now().Sub(t.startedAt).Seconds(); elapsed > 0 {
		s.ThroughputBytesPerSec = float64(t.bytes) / elapsed
	}

	remaining := t.totalBytes - t.bytes
	switch {
	case remaining <= 0:
		s.ETAKnown = true
	case s.ThroughputBytesPerSec > 0:
		s.EstimatedSecondsRemaining = float64(remaining) / s.ThroughputBytesPerSec
		s.ETAKnown = true
	}
	return s
}
