// Package bench runs the three-stage benchmark over synthetic households
// and reads and writes benchmark result files.
package bench

import (
	"context"
	"fmt"
	"io"
	"time"

	"gettsimarchive/internal/household"
	"gettsimarchive/internal/logging"
	"gettsimarchive/internal/memtrack"
	"gettsimarchive/internal/report"
	"gettsimarchive/internal/sim"
	"gettsimarchive/internal/sim/rules"
)

// DefaultSizes are the household counts of a full sweep.
var DefaultSizes = []int{1<<15 - 1, 1 << 15, 1 << 16, 1 << 17, 1 << 18, 1 << 19, 1 << 20}

// DefaultProfileSize is the household count profiled by default.
const DefaultProfileSize = 1 << 15

// RunConfig configures one benchmark run.
type RunConfig struct {
	Households int
	Backend    string
	// Workers bounds the parallel backend; zero means GOMAXPROCS.
	Workers        int
	Scramble       bool
	PolicyDate     time.Time
	SampleInterval time.Duration
	// Out receives progress lines; nil discards them.
	Out io.Writer
}

func (c RunConfig) date() time.Time {
	if c.PolicyDate.IsZero() {
		return rules.DefaultDate
	}
	return c.PolicyDate
}

func (c RunConfig) out() io.Writer {
	if c.Out == nil {
		return io.Discard
	}
	return c.Out
}

// stages is everything a run measures.
type stages struct {
	processed *sim.Processed
	raw       *sim.RawResults
	table     *sim.Table
	times     [3]float64
	hashes    [3]string
}

type stageHook func(stage int, elapsed time.Duration)

func runStages(ctx context.Context, cfg RunConfig, data *household.Frame, hook stageHook) (*stages, error) {
	backend, err := sim.GetBackend(cfg.Backend, cfg.Workers)
	if err != nil {
		return nil, err
	}
	s := &stages{}
	timed := func(stage int, fn func() error) error {
		start := time.Now()
		if err := fn(); err != nil {
			return fmt.Errorf("stage %d: %w", stage, err)
		}
		elapsed := time.Since(start)
		s.times[stage-1] = elapsed.Seconds()
		if hook != nil {
			hook(stage, elapsed)
		}
		return nil
	}

	if err := timed(Stage1, func() (err error) {
		s.processed, err = sim.Prepare(ctx, data, rules.DefaultMapper(), rules.DefaultTargets(), rules.Functions, cfg.date())
		return err
	}); err != nil {
		return nil, err
	}
	s.hashes[0] = sim.HashProcessed(s.processed)

	if err := timed(Stage2, func() (err error) {
		s.raw, err = sim.Compute(ctx, s.processed, backend)
		return err
	}); err != nil {
		return nil, err
	}
	s.hashes[1] = sim.HashRaw(s.processed, s.raw)

	if err := timed(Stage3, func() (err error) {
		s.table, err = sim.Format(s.processed, s.raw)
		return err
	}); err != nil {
		return nil, err
	}
	s.hashes[2] = sim.HashTable(s.table)
	return s, nil
}

func (s *stages) fill(r *RunResult, initial, final, peak float64) {
	times := s.times
	total := times[0] + times[1] + times[2]
	delta := final - initial
	shape := s.table.Shape()
	r.Stage1Time, r.Stage2Time, r.Stage3Time = &times[0], &times[1], &times[2]
	r.ExecutionTime = &total
	r.Stage1Hash, r.Stage2Hash, r.Stage3Hash = s.hashes[0], s.hashes[1], s.hashes[2]
	r.InitialMemory, r.FinalMemory = &initial, &final
	r.MemoryDelta, r.PeakMemory = &delta, &peak
	r.ResultShape = []int{shape[0], shape[1]}
}

// stopTracking ends sampling before the final reading so that the sampler
// goroutine is not counted in it.
func stopTracking(tracker *memtrack.Tracker) (final, peak float64) {
	peak = tracker.Stop()
	final, _ = memtrack.CurrentMB()
	return final, peak
}

func percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

// Run executes one benchmark. A failed run returns its error and a result
// with nil times.
func Run(ctx context.Context, cfg RunConfig) (RunResult, error) {
	log := logging.Get(logging.CategoryBench)
	w := cfg.out()
	result := RunResult{Households: cfg.Households, Backend: cfg.Backend}

	fmt.Fprintf(w, "Running benchmark: %s households, %s backend\n", report.Thousands(cfg.Households), cfg.Backend)
	fmt.Fprintln(w, "  Generating data...")
	data := household.Make(cfg.Households, cfg.Scramble)

	tracker := memtrack.NewTracker(cfg.SampleInterval)
	initial, err := memtrack.CurrentMB()
	if err != nil {
		log.Warnw("memory reading unavailable", "error", err)
	}
	tracker.Start(ctx)

	names := [3]string{
		"Stage 1: Data preprocessing and DAG creation...",
		"Stage 2: Computation only...",
		"Stage 3: Convert raw results to table...",
	}
	fmt.Fprintf(w, "  %s\n", names[0])
	s, err := runStages(ctx, cfg, data, func(stage int, _ time.Duration) {
		if stage < Stage3 {
			fmt.Fprintf(w, "  %s\n", names[stage])
		}
	})
	if err != nil {
		tracker.Stop()
		fmt.Fprintf(w, "  ERROR: %v\n", err)
		log.Errorw("benchmark run failed", "households", cfg.Households, "backend", cfg.Backend, "error", err)
		result.Error = err.Error()
		return result, err
	}

	final, peak := stopTracking(tracker)
	s.fill(&result, initial, final, peak)
	total, delta, shape := *result.ExecutionTime, *result.MemoryDelta, result.ResultShape

	for i, t := range s.times {
		fmt.Fprintf(w, "  Stage %d: %.4fs (%.1f%%)\n", i+1, t, percent(t, total))
	}
	fmt.Fprintf(w, "  Total: %.4fs\n", total)
	fmt.Fprintf(w, "  Result shape: (%d, %d)\n", shape[0], shape[1])
	fmt.Fprintf(w, "  Memory: %.1f -> %.1f MB (Δ%+.1f, peak: %.1f)\n", initial, final, delta, peak)
	log.Debugw("benchmark run", "households", cfg.Households, "backend", cfg.Backend, "total", total, "peak_mb", peak)
	return result, nil
}
