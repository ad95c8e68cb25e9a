package compare

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gettsimarchive/internal/bench"
	"gettsimarchive/internal/report"
)

var (
	stageLabels = map[int]string{
		bench.Stage1:     "pre-processing",
		bench.Stage2:     "computation",
		bench.Stage3:     "post-processing",
		bench.StageTotal: "total time",
	}
	stageDescriptions = map[int]string{
		bench.Stage1:     "Data preprocessing",
		bench.Stage2:     "Core computation",
		bench.Stage3:     "Table formatting",
		bench.StageTotal: "Complete execution",
	}
	stageNames = map[int]string{
		bench.Stage1:     "Stage 1 (preprocessing)",
		bench.Stage2:     "Stage 2 (computation)",
		bench.Stage3:     "Stage 3 (formatting)",
		bench.StageTotal: "Total execution",
	}
)

// Table renders the per-size breakdown of one backend.
func (b Backend) Table() *report.Table {
	t := report.NewTable(
		strings.ToUpper(b.Name)+" BACKEND COMPARISON: Main Branch vs PR Branch - 3-STAGE BREAKDOWN",
		"Households", "Stage", "Main (s)", "PR (s)", "Speedup", "Description", "Hash Match",
	)
	for _, row := range b.Rows {
		size := report.Thousands(row.Households)
		if row.Failed() {
			t.AddRow(size, "FAILED", report.Seconds(row.Main.ExecutionTime), report.Seconds(row.PR.ExecutionTime),
				NA, "Benchmark failed", NA)
			t.AddDivider()
			continue
		}
		for _, stage := range stages {
			main, pr := row.Main.Time(stage), row.PR.Time(stage)
			if stage == bench.StageTotal && (!positive(main) || !positive(pr)) {
				continue
			}
			match := ""
			if stage == bench.Stage2 || stage == bench.Stage3 {
				match = row.Hash[stage-1]
			}
			t.AddRow(size, stageLabels[stage], report.Seconds(main), report.Seconds(pr),
				report.Speedup(main, pr), stageDescriptions[stage], match)
			size = ""
		}
		t.AddDivider()
	}
	return t
}

func positive(v *float64) bool { return v != nil && *v > 0 }

// Write prints the backend tables and the summary.
func (r *Report) Write(w io.Writer, styles report.Styles) {
	for _, b := range r.Backends {
		fmt.Fprintln(w)
		fmt.Fprintln(w, b.Table().Render(styles))
	}
	r.writeSummary(w, styles)
}

func (r *Report) writeSummary(w io.Writer, styles report.Styles) {
	fmt.Fprintf(w, "\n%s\n", report.Banner("SUMMARY STATISTICS - 3-STAGE BREAKDOWN", 100))
	for _, b := range r.Backends {
		fmt.Fprintf(w, "\n%s Backend:\n%s\n", strings.ToUpper(b.Name), strings.Repeat("-", 40))
		for _, s := range b.Stages {
			avg, ok := s.Average()
			if !ok {
				fmt.Fprintf(w, "  %s: No valid comparisons available\n", stageNames[s.Stage])
				continue
			}
			fmt.Fprintf(w, "  %s:\n", stageNames[s.Stage])
			fmt.Fprintf(w, "    Average speedup: %.2fx\n", avg)
			fmt.Fprintf(w, "    Maximum speedup: %.2fx\n", s.Max())
			fmt.Fprintf(w, "    Minimum speedup: %.2fx\n", s.Min())
			fmt.Fprintf(w, "    Successful runs: %d/%d\n", s.Successful, s.Total)
		}
		for i, h := range b.Hashes {
			if h.Comparisons == 0 {
				fmt.Fprintf(w, "  Stage %d hash verification: No valid comparisons available\n", i+1)
				continue
			}
			fmt.Fprintf(w, "  Stage %d hash verification: %d/%d mismatches\n", i+1, h.Mismatches, h.Comparisons)
		}
		verdict := b.Verdict()
		style := styles.Body
		switch {
		case strings.HasPrefix(verdict, "✓"):
			style = styles.Success
		case strings.HasPrefix(verdict, "⚠"):
			style = styles.Warning
		}
		fmt.Fprintf(w, "  %s\n", style.Render(verdict))
	}

	fmt.Fprintf(w, "\n%s\n", report.Banner("OVERALL PERFORMANCE IMPACT", 100))
	for _, b := range r.Backends {
		fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(b.Name), b.Impact())
	}
}

// FileName returns the name a comparison made at t is saved under.
func FileName(t time.Time) string {
	return fmt.Sprintf("benchmark_comparison_%s.txt", t.Format("20060102_150405"))
}

// Save writes the plain-text report with a header naming both inputs and
// returns the path.
func (r *Report) Save(dir string, now time.Time, mainPath, prPath string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Benchmark Comparison Report\n")
	fmt.Fprintf(&sb, "Generated: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Main branch file: %s\n", mainPath)
	fmt.Fprintf(&sb, "PR branch file: %s\n", prPath)
	r.Write(&sb, report.Plain())

	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to save comparison: %w", err)
	}
	return path, nil
}
