package memtrack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCurrentMB(t *testing.T) {
	v, err := CurrentMB()
	require.NoError(t, err)
	assert.Positive(t, v)
}

func TestTrackerPeak(t *testing.T) {
	tr := NewTracker(time.Millisecond)
	tr.Start(context.Background())
	buf := make([]byte, 32*mb)
	for i := range buf {
		buf[i] = byte(i)
	}
	time.Sleep(20 * time.Millisecond)
	peak := tr.Stop()
	assert.Positive(t, peak)
	assert.Equal(t, peak, tr.Peak())
	assert.Equal(t, peak, tr.Stop())
	assert.NotZero(t, buf[len(buf)-1])
}

func TestTrackerStopWithoutStart(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, DefaultInterval, tr.interval)
	assert.Positive(t, tr.Stop())
	tr.Start(context.Background())
	assert.Equal(t, tr.Peak(), tr.Stop())
}

func TestTrackerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := NewTracker(time.Millisecond)
	tr.Start(ctx)
	tr.Start(ctx)
	cancel()
	assert.Positive(t, tr.Stop())
}
