// Package memtrack samples the resident memory of the current process.
package memtrack

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// DefaultInterval is the sampling interval of a Tracker.
const DefaultInterval = 10 * time.Millisecond

const mb = 1024 * 1024

var (
	selfOnce sync.Once
	self     *process.Process
	selfErr  error
)

func current() (*process.Process, error) {
	selfOnce.Do(func() {
		self, selfErr = process.NewProcess(int32(os.Getpid()))
	})
	return self, selfErr
}

// CurrentMB returns the resident set size of this process in MiB.
func CurrentMB() (float64, error) {
	p, err := current()
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / mb, nil
}

// Tracker records the peak RSS seen by a background sampler.
type Tracker struct {
	interval time.Duration

	mu      sync.Mutex
	peak    float64
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewTracker returns a tracker sampling every interval; zero means
// DefaultInterval.
func NewTracker(interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{interval: interval}
}

// Start takes a first sample and launches the sampler. It is a no-op on a
// running or stopped tracker.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil || t.stopped {
		return
	}
	t.sampleLocked()
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	go t.loop(ctx, t.done)
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			t.sampleLocked()
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) sampleLocked() {
	if v, err := CurrentMB(); err == nil && v > t.peak {
		t.peak = v
	}
}

// Stop ends sampling, takes a final sample and returns the peak in MiB.
// Further calls return the same peak.
func (t *Tracker) Stop() float64 {
	t.mu.Lock()
	if t.stopped {
		defer t.mu.Unlock()
		return t.peak
	}
	t.stopped = true
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampleLocked()
	return t.peak
}

// Peak returns the highest sample so far.
func (t *Tracker) Peak() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peak
}
