// Package compare contrasts two benchmark result files, typically one from
// the main branch and one from a pull request.
package compare

import (
	"errors"
	"fmt"

	"gettsimarchive/internal/bench"
	"gettsimarchive/internal/logging"
)

// ErrNoSizes means neither file names any household size.
var ErrNoSizes = errors.New("could not extract household sizes from either file")

// Hash match markers.
const (
	Match    = "✓"
	Mismatch = "✗"
	NA       = "N/A"
)

// stages in report order; bench.StageTotal last.
var stages = []int{bench.Stage1, bench.Stage2, bench.Stage3, bench.StageTotal}

// Row compares one household size on one backend.
type Row struct {
	Households int
	Main, PR   bench.RunResult
	// Hash holds the match marker of stages 1 to 3 at index stage-1. The
	// stage 1 marker is left empty in tables.
	Hash [3]string
}

// Failed reports whether a stage time is missing on either side.
func (r Row) Failed() bool {
	for _, s := range []int{bench.Stage1, bench.Stage2, bench.Stage3} {
		if r.Main.Time(s) == nil || r.PR.Time(s) == nil {
			return true
		}
	}
	return false
}

// StageStats summarises the speedups of one stage over all sizes.
type StageStats struct {
	Stage      int
	Speedups   []float64
	Successful int
	Total      int
}

// Average returns the mean speedup; ok is false without data.
func (s StageStats) Average() (avg float64, ok bool) {
	if len(s.Speedups) == 0 {
		return 0, false
	}
	for _, v := range s.Speedups {
		avg += v
	}
	return avg / float64(len(s.Speedups)), true
}

// Max returns the largest speedup.
func (s StageStats) Max() float64 {
	m := s.Speedups[0]
	for _, v := range s.Speedups[1:] {
		m = max(m, v)
	}
	return m
}

// Min returns the smallest speedup.
func (s StageStats) Min() float64 {
	m := s.Speedups[0]
	for _, v := range s.Speedups[1:] {
		m = min(m, v)
	}
	return m
}

// HashStats counts hash comparisons of one stage.
type HashStats struct {
	Mismatches  int
	Comparisons int
}

// Backend is the comparison of one backend.
type Backend struct {
	Name   string
	Rows   []Row
	Stages []StageStats
	Hashes [3]HashStats
	// TotalSpeedups are main/PR total times where both are positive.
	TotalSpeedups []float64
}

// Verdict summarises the hash verification.
func (b Backend) Verdict() string {
	perfect, compared, mismatched := true, false, false
	for _, h := range b.Hashes {
		if h.Comparisons == 0 {
			perfect = false
		}
		compared = compared || h.Comparisons > 0
		mismatched = mismatched || h.Mismatches > 0
	}
	switch {
	case perfect && compared && !mismatched:
		return "✓ All stage results are numerically identical"
	case mismatched:
		return "⚠ Some stage results differ between main and PR"
	}
	return "No valid hash comparisons available"
}

// Impact classifies the average total speedup.
func (b Backend) Impact() string {
	if len(b.TotalSpeedups) == 0 {
		return "No valid performance comparisons available"
	}
	var avg float64
	for _, v := range b.TotalSpeedups {
		avg += v
	}
	avg /= float64(len(b.TotalSpeedups))
	switch {
	case avg > 1.05:
		return fmt.Sprintf("PR is %.1fx faster (significant improvement)", avg)
	case avg < 0.95:
		return fmt.Sprintf("PR is %.1fx slower (performance regression)", 1/avg)
	}
	return "PR has minimal performance impact (±5%)"
}

// Report is the full comparison.
type Report struct {
	Sizes    []int
	Backends []Backend
}

// Mismatches counts differing stage hashes over all backends.
func (r *Report) Mismatches() int {
	n := 0
	for _, b := range r.Backends {
		for _, h := range b.Hashes {
			n += h.Mismatches
		}
	}
	return n
}

func hashMarker(main, pr string) string {
	switch {
	case main == "" || pr == "":
		return NA
	case main == pr:
		return Match
	}
	return Mismatch
}

func ratio(main, pr *float64) (float64, bool) {
	if main == nil || pr == nil || *pr <= 0 {
		return 0, false
	}
	return *main / *pr, true
}

// Compare builds the report. Sizes come from the PR file, falling back to
// the main file.
func Compare(main, pr *bench.ResultFile) (*Report, error) {
	log := logging.Get(logging.CategoryCompare)
	sizes := pr.Sizes()
	if len(sizes) == 0 {
		sizes = main.Sizes()
	}
	if len(sizes) == 0 {
		return nil, ErrNoSizes
	}

	set := map[string]bool{}
	for _, rf := range []*bench.ResultFile{main, pr} {
		for _, b := range rf.BackendNames() {
			set[b] = true
		}
	}

	rep := &Report{Sizes: sizes}
	for _, name := range bench.OrderBackends(set) {
		b := Backend{Name: name}
		for _, stage := range stages {
			b.Stages = append(b.Stages, StageStats{Stage: stage, Total: len(sizes)})
		}
		for _, n := range sizes {
			row := Row{Households: n}
			row.Main, _ = main.Find(n, name)
			row.PR, _ = pr.Find(n, name)
			for i := range row.Hash {
				stage := i + 1
				mh, ph := row.Main.Hash(stage), row.PR.Hash(stage)
				row.Hash[i] = hashMarker(mh, ph)
				if mh != "" && ph != "" {
					b.Hashes[i].Comparisons++
					if mh != ph {
						b.Hashes[i].Mismatches++
						log.Warnw("stage hash mismatch", "backend", name, "households", n, "stage", stage, "main", mh, "pr", ph)
					}
				}
			}
			for i, stage := range stages {
				if v, ok := ratio(row.Main.Time(stage), row.PR.Time(stage)); ok {
					b.Stages[i].Speedups = append(b.Stages[i].Speedups, v)
					b.Stages[i].Successful++
				}
			}
			if v, ok := ratio(row.Main.ExecutionTime, row.PR.ExecutionTime); ok && *row.Main.ExecutionTime > 0 {
				b.TotalSpeedups = append(b.TotalSpeedups, v)
			}
			b.Rows = append(b.Rows, row)
		}
		rep.Backends = append(rep.Backends, b)
	}
	return rep, nil
}
