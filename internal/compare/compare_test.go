package compare

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gettsimarchive/internal/bench"
	"gettsimarchive/internal/logging"
	"gettsimarchive/internal/report"
)

func ptr(v float64) *float64 { return &v }

func run(n int, backend string, s1, s2, s3 float64, h2, h3 string) bench.RunResult {
	return bench.RunResult{
		Households: n, Backend: backend,
		Stage1Time: ptr(s1), Stage2Time: ptr(s2), Stage3Time: ptr(s3), ExecutionTime: ptr(s1 + s2 + s3),
		Stage1Hash: "h1", Stage2Hash: h2, Stage3Hash: h3,
	}
}

func files() (*bench.ResultFile, *bench.ResultFile) {
	main := &bench.ResultFile{
		Metadata: bench.Metadata{HouseholdSizes: []int{1000, 2000}},
		Runs: []bench.RunResult{
			run(1000, "serial", 1, 4, 1, "a", "b"),
			run(2000, "serial", 2, 8, 2, "c", "d"),
			run(1000, "parallel", 1, 2, 1, "a", "b"),
			{Households: 2000, Backend: "parallel", Error: "boom"},
		},
	}
	pr := &bench.ResultFile{
		Metadata: bench.Metadata{HouseholdSizes: []int{1000, 2000}},
		Runs: []bench.RunResult{
			run(1000, "serial", 1, 2, 1, "a", "b"),
			run(2000, "serial", 2, 4, 2, "c", "x"),
			run(1000, "parallel", 1, 2, 1, "a", "b"),
			run(2000, "parallel", 2, 4, 2, "c", "d"),
		},
	}
	return main, pr
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logging.Initialize(zap.New(core), nil)
	t.Cleanup(logging.Reset)
	return logs
}

func TestCompare(t *testing.T) {
	logs := observe(t)
	main, pr := files()
	rep, err := Compare(main, pr)
	require.NoError(t, err)
	require.Len(t, rep.Backends, 2)

	serial := rep.Backends[0]
	assert.Equal(t, "serial", serial.Name)
	assert.Equal(t, [3]string{Match, Match, Match}, serial.Rows[0].Hash)
	assert.Equal(t, [3]string{Match, Match, Mismatch}, serial.Rows[1].Hash)
	assert.Equal(t, HashStats{Mismatches: 1, Comparisons: 2}, serial.Hashes[2])
	assert.Equal(t, "⚠ Some stage results differ between main and PR", serial.Verdict())
	assert.Equal(t, "PR is 1.5x faster (significant improvement)", serial.Impact())
	assert.Equal(t, 1, rep.Mismatches())

	parallel := rep.Backends[1]
	assert.True(t, parallel.Rows[1].Failed())
	assert.Equal(t, [3]string{NA, NA, NA}, parallel.Rows[1].Hash)
	assert.Equal(t, "✓ All stage results are numerically identical", parallel.Verdict())
	assert.Equal(t, "PR has minimal performance impact (±5%)", parallel.Impact())
	assert.Equal(t, 1, parallel.Stages[1].Successful)
	assert.Equal(t, 2, parallel.Stages[1].Total)

	warnings := logs.FilterMessage("stage hash mismatch").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Equal(t, int64(3), warnings[0].ContextMap()["stage"])
}

func TestStageStats(t *testing.T) {
	s := StageStats{Speedups: []float64{1, 3, 2}}
	avg, ok := s.Average()
	require.True(t, ok)
	assert.Equal(t, 2.0, avg)
	assert.Equal(t, 3.0, s.Max())
	assert.Equal(t, 1.0, s.Min())
	_, ok = StageStats{}.Average()
	assert.False(t, ok)
}

func TestImpactRegression(t *testing.T) {
	b := Backend{TotalSpeedups: []float64{0.5, 0.5}}
	assert.Equal(t, "PR is 2.0x slower (performance regression)", b.Impact())
	assert.Equal(t, "No valid performance comparisons available", Backend{}.Impact())
	assert.Equal(t, "No valid hash comparisons available", Backend{}.Verdict())
}

func TestCompareSizesFallback(t *testing.T) {
	main := &bench.ResultFile{Runs: []bench.RunResult{run(8, "serial", 1, 1, 1, "a", "b")}}
	rep, err := Compare(main, &bench.ResultFile{})
	require.NoError(t, err)
	assert.Equal(t, []int{8}, rep.Sizes)
	assert.True(t, rep.Backends[0].Rows[0].Failed())

	_, err = Compare(&bench.ResultFile{}, &bench.ResultFile{})
	assert.ErrorIs(t, err, ErrNoSizes)
}

func TestTableSkipsZeroTotal(t *testing.T) {
	main := &bench.ResultFile{Runs: []bench.RunResult{run(8, "serial", 0, 0, 0, "a", "b")}}
	pr := &bench.ResultFile{Runs: []bench.RunResult{run(8, "serial", 0.5, 0.5, 0.5, "a", "b")}}
	rep, err := Compare(main, pr)
	require.NoError(t, err)

	out := rep.Backends[0].Table().String()
	assert.Contains(t, out, "computation")
	assert.NotContains(t, out, "total time")
	assert.NotContains(t, out, "1/")
}

func TestWriteAndSave(t *testing.T) {
	main, pr := files()
	rep, err := Compare(main, pr)
	require.NoError(t, err)

	var buf bytes.Buffer
	rep.Write(&buf, report.Plain())
	out := buf.String()
	t.Logf("\n%s", out)
	assert.Contains(t, out, "SERIAL BACKEND COMPARISON: Main Branch vs PR Branch - 3-STAGE BREAKDOWN")
	assert.Contains(t, out, "2.00x")
	assert.Contains(t, out, "Benchmark failed")
	assert.Contains(t, out, "Average speedup: 1.50x")
	assert.Contains(t, out, "Successful runs: 2/2")
	assert.Contains(t, out, "Stage 3 hash verification: 1/2 mismatches")
	assert.Contains(t, out, "SERIAL: PR is 1.5x faster (significant improvement)")

	now := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)
	dir := t.TempDir()
	path, err := rep.Save(dir, now, "main.json", "pr.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "benchmark_comparison_20250801_093000.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.SplitN(string(data), "\n", 5)
	assert.Equal(t, "Benchmark Comparison Report", lines[0])
	assert.Equal(t, "Generated: 2025-08-01T09:30:00Z", lines[1])
	assert.Equal(t, "Main branch file: main.json", lines[2])
	assert.Equal(t, "PR branch file: pr.json", lines[3])
}
