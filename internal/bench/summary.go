package bench

import (
	"fmt"
	"io"
	"strings"

	"gettsimarchive/internal/report"
)

var stageRows = []struct {
	label string
	stage int
}{
	{"pre-processing", Stage1},
	{"computation", Stage2},
	{"post-processing", Stage3},
	{"total time", StageTotal},
}

func hashCell(r RunResult, stage int) string {
	switch {
	case r.Time(stage) == nil:
		return "FAILED"
	case r.Hash(stage) != "":
		return r.Hash(stage)[:min(8, len(r.Hash(stage)))]
	}
	return "N/A"
}

// TimingTable compares the stage times of every backend against the first.
func TimingTable(rf *ResultFile) *report.Table {
	backends := rf.BackendNames()
	upper := make([]string, len(backends))
	for i, b := range backends {
		upper[i] = strings.ToUpper(b)
	}

	headers := []string{"Households", "Stage"}
	for _, b := range upper {
		headers = append(headers, b+" hash")
	}
	for _, b := range upper {
		headers = append(headers, b+" (s)")
	}
	for _, b := range upper[min(1, len(upper)):] {
		if len(upper) == 2 {
			headers = append(headers, "Speedup")
		} else {
			headers = append(headers, "Speedup "+b)
		}
	}

	table := report.NewTable("PERFORMANCE COMPARISON "+strings.Join(upper, " <-> "), headers...)
	for _, n := range rf.Sizes() {
		runs := make([]RunResult, len(backends))
		anyOK := false
		for i, b := range backends {
			runs[i], _ = rf.Find(n, b)
			anyOK = anyOK || !runs[i].Failed()
		}
		if !anyOK {
			row := []string{report.Thousands(n)}
			for len(row) < len(headers) {
				row = append(row, "FAILED")
			}
			table.AddRow(row...)
			table.AddDivider()
			continue
		}
		for k, sr := range stageRows {
			row := []string{"", sr.label}
			if k == 0 {
				row[0] = report.Thousands(n)
			}
			for _, r := range runs {
				switch sr.stage {
				case Stage1:
					row = append(row, "-")
				case StageTotal:
					row = append(row, "")
				default:
					row = append(row, hashCell(r, sr.stage))
				}
			}
			for _, r := range runs {
				row = append(row, report.Seconds(r.Time(sr.stage)))
			}
			for _, r := range runs[min(1, len(runs)):] {
				row = append(row, speedupCell(runs[0].Time(sr.stage), r.Time(sr.stage)))
			}
			table.AddRow(row...)
		}
		table.AddDivider()
	}
	return table
}

func speedupCell(base, other *float64) string {
	if base == nil && other == nil {
		return "FAILED"
	}
	return report.Speedup(base, other)
}

// MemoryTable lists the memory readings of every backend.
func MemoryTable(rf *ResultFile) *report.Table {
	backends := rf.BackendNames()
	headers := []string{"Households"}
	for _, b := range backends {
		u := strings.ToUpper(b)
		headers = append(headers, u+" Init", u+" Final", u+" Δ", u+" Peak")
	}
	table := report.NewTable("MEMORY USAGE COMPARISON", headers...)
	for _, n := range rf.Sizes() {
		row := []string{report.Thousands(n)}
		for _, b := range backends {
			r, _ := rf.Find(n, b)
			row = append(row, report.MB(r.InitialMemory), report.MB(r.FinalMemory), report.MB(r.MemoryDelta), report.MB(r.PeakMemory))
		}
		table.AddRow(row...)
	}
	return table
}

// Legend explains the summary tables.
const Legend = `Legend:
  Stage 1: Data preprocessing & DAG creation
  Stage 2: Core computation (tax/transfer calculations)
  Stage 3: Preparing results table
  Init/Final: Memory usage before/after execution
  Δ: Memory increase during execution
  Peak: Maximum memory usage during execution
`

// WriteSummary prints the timing and memory tables of a sweep.
func WriteSummary(w io.Writer, rf *ResultFile, styles report.Styles) {
	ordering := "Data ordering: SORTED (sequential p_id)"
	if rf.Metadata.ScrambledData {
		ordering = "Data ordering: SCRAMBLED (unsorted p_id)"
	}
	fmt.Fprintf(w, "\n%s\n\n", report.Banner("3-STAGE TIMING BREAKDOWN\n"+ordering, 120))
	fmt.Fprintln(w, TimingTable(rf).Render(styles))
	fmt.Fprintln(w, MemoryTable(rf).Render(styles))
	fmt.Fprint(w, Legend)
}
