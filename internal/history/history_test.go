package history

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gettsimarchive/internal/bench"
)

func ptr(v float64) *float64 { return &v }

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func resultFile(id string, ts time.Time) *bench.ResultFile {
	return &bench.ResultFile{
		Metadata: bench.Metadata{Timestamp: ts, RunID: id, GitCommit: "abc1234", ScrambledData: true},
		Runs: []bench.RunResult{
			{Households: 8, Backend: "serial", Stage1Time: ptr(0.1), Stage2Time: ptr(0.2), Stage3Time: ptr(0.3),
				ExecutionTime: ptr(0.6), Stage3Hash: "0123456789abcdef", PeakMemory: ptr(42)},
			{Households: 8, Backend: "parallel", Error: "boom"},
		},
	}
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	older := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	id, err := db.Record(ctx, resultFile("first", older))
	require.NoError(t, err)
	assert.Equal(t, "first", id)
	_, err = db.Record(ctx, resultFile("second", newer))
	require.NoError(t, err)

	entries, err := db.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "second", entries[0].RunID)
	assert.Equal(t, "parallel", entries[0].Backend)
	assert.True(t, entries[0].Failed)
	assert.Nil(t, entries[0].Total)
	assert.True(t, entries[0].RecordedAt.Equal(newer))

	serial := entries[1]
	assert.Equal(t, "serial", serial.Backend)
	assert.False(t, serial.Failed)
	assert.True(t, serial.Scrambled)
	assert.Equal(t, "abc1234", serial.GitCommit)
	require.NotNil(t, serial.Total)
	assert.InDelta(t, 0.6, *serial.Total, 1e-12)
	assert.InDelta(t, 0.2, *serial.StageTimes[1], 1e-12)
	assert.Equal(t, "0123456789abcdef", serial.Hashes[2])
	assert.Equal(t, "first", entries[3].RunID)

	limited, err := db.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecordTwiceReplaces(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	rf := resultFile("same", time.Now())
	_, err := db.Record(ctx, rf)
	require.NoError(t, err)
	_, err = db.Record(ctx, rf)
	require.NoError(t, err)
	entries, err := db.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecordAssignsRunID(t *testing.T) {
	db := openTemp(t)
	id, err := db.Record(context.Background(), resultFile("", time.Time{}))
	require.NoError(t, err)
	assert.Len(t, id, 36)
}

func TestTable(t *testing.T) {
	db := openTemp(t)
	_, err := db.Record(context.Background(), resultFile("x", time.Now()))
	require.NoError(t, err)
	entries, err := db.Recent(context.Background(), 5)
	require.NoError(t, err)
	out := Table(entries).String()
	assert.Contains(t, out, "BENCHMARK HISTORY")
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "scrambled")
	assert.Contains(t, out, "0.6000")
	assert.Equal(t, 2, strings.Count(out, "FAILED"))
}
