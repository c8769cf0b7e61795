package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_Percentiles(t *testing.T) {
	s := NewStats(time.Hour)
	for i, d := range []time.Duration{100, 200, 300, 400, 500} {
		status := StatusCompleted
		if i == 4 {
			status = StatusFailed
		}
		s.Record(status, d*time.Millisecond)
	}

	snap := s.Snapshot()
	assert.Equal(t, 5, snap.Jobs)
	assert.Equal(t, 4, snap.Completed)
	assert.Equal(t, 1, snap.Failed)
	assert.EqualValues(t, 100, snap.MinMs)
	assert.EqualValues(t, 500, snap.MaxMs)
	assert.InDelta(t, 300, snap.AvgMs, 0.001)
	assert.InDelta(t, 300, snap.P50Ms, 0.001)
	assert.InDelta(t, 480, snap.P95Ms, 0.001)
}

func TestStats_PrunesOldSamples(t *testing.T) {
	s := NewStats(10 * time.Millisecond)
	s.Record(StatusCompleted, time.Second)
	time.Sleep(25 * time.Millisecond)
	assert.Zero(t, s.Snapshot().Jobs)

	s.Record(StatusDupSkipped, -time.Second)
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Jobs)
	assert.Equal(t, 1, snap.Duplicates)
	assert.Zero(t, snap.MaxMs)
}
