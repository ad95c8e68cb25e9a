package bench

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"gettsimarchive/internal/household"
	"gettsimarchive/internal/memtrack"
	"gettsimarchive/internal/report"
)

// ProfileConfig configures a single verbose run.
type ProfileConfig struct {
	RunConfig
	// CPUProfile and MemProfile are pprof output paths; empty disables.
	CPUProfile string
	MemProfile string
}

// Profile runs one configuration with per-stage detail written to w.
func Profile(ctx context.Context, cfg ProfileConfig, w io.Writer) (RunResult, error) {
	result := RunResult{Households: cfg.Households, Backend: cfg.Backend}
	fmt.Fprintf(w, "Generating dataset with %s households...\n", report.Thousands(cfg.Households))
	data := household.Make(cfg.Households, cfg.Scramble)
	fmt.Fprintf(w, "Dataset created successfully. Shape: (%d, %d)\n", data.Len(), len(data.Columns))
	fmt.Fprintf(w, "Running with backend: %s\n", cfg.Backend)

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			return result, fmt.Errorf("failed to create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return result, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	tracker := memtrack.NewTracker(cfg.SampleInterval)
	initial, _ := memtrack.CurrentMB()
	tracker.Start(ctx)

	headings := [3]string{
		"=== STAGE 1: Data preprocessing and DAG creation ===",
		"=== STAGE 2: Computation only (no preprocessing) ===",
		"=== STAGE 3: Convert raw results to table ===",
	}
	fmt.Fprintf(w, "\n%s\n", headings[0])
	s, err := runStages(ctx, cfg.RunConfig, data, func(stage int, elapsed time.Duration) {
		fmt.Fprintf(w, "Wall clock time: %s - Completed Stage %d\n", time.Now().Format(time.TimeOnly), stage)
		fmt.Fprintf(w, "Stage %d completed in: %.4f seconds\n", stage, elapsed.Seconds())
		if stage < Stage3 {
			fmt.Fprintf(w, "\n%s\n", headings[stage])
		}
	})
	if err != nil {
		tracker.Stop()
		fmt.Fprintf(w, "ERROR during profiling: %v\n", err)
		result.Error = err.Error()
		return result, err
	}
	final, peak := stopTracking(tracker)
	s.fill(&result, initial, final, peak)
	total, delta, shape := *result.ExecutionTime, *result.MemoryDelta, result.ResultShape

	fmt.Fprintf(w, "\nDAG nodes: %d\n", s.processed.Graph.Len())
	fmt.Fprintf(w, "Processed data keys: %d\n", len(s.processed.Inputs))
	fmt.Fprintf(w, "Raw result columns: %d\n", len(s.raw.Columns))
	fmt.Fprintf(w, "Final table shape: (%d, %d)\n", shape[0], shape[1])
	fmt.Fprintf(w, "Total execution time: %.4f seconds\n", total)
	for i, label := range []string{"preprocessing", "computation", "formatting"} {
		fmt.Fprintf(w, "Stage %d (%s): %.4fs (%.1f%%)\n", i+1, label, s.times[i], percent(s.times[i], total))
	}
	fmt.Fprintf(w, "Backend: %s\n", cfg.Backend)
	fmt.Fprintf(w, "Households: %s\n", report.Thousands(cfg.Households))
	fmt.Fprintf(w, "People: %s\n", report.Thousands(data.Len()))
	if total > 0 {
		fmt.Fprintf(w, "Performance: %.0f households/second\n", float64(cfg.Households)/total)
	}
	fmt.Fprintf(w, "Memory: %.1f -> %.1f MB (Δ%+.1f, peak: %.1f)\n", initial, final, delta, peak)
	fmt.Fprintln(w, "\n=== STAGE HASHES ===")
	for i, h := range s.hashes {
		fmt.Fprintf(w, "Stage %d hash: %s...\n", i+1, h[:16])
	}

	if cfg.MemProfile != "" {
		if err := writeHeapProfile(cfg.MemProfile); err != nil {
			return result, err
		}
	}

	return result, nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	return nil
}
