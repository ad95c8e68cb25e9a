// Package history keeps a SQLite log of benchmark runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gettsimarchive/internal/bench"
	"gettsimarchive/internal/logging"
	"gettsimarchive/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	git_branch TEXT,
	git_commit TEXT,
	scrambled INTEGER NOT NULL DEFAULT 0,
	households INTEGER NOT NULL,
	backend TEXT NOT NULL,
	stage1_time REAL,
	stage2_time REAL,
	stage3_time REAL,
	total_time REAL,
	stage1_hash TEXT,
	stage2_hash TEXT,
	stage3_hash TEXT,
	peak_memory REAL,
	failed INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, households, backend)
);
CREATE INDEX IF NOT EXISTS idx_runs_recorded ON runs(recorded_at);
`

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded run.
type Entry struct {
	RunID      string
	RecordedAt time.Time
	GitBranch  string
	GitCommit  string
	Scrambled  bool
	Households int
	Backend    string
	StageTimes [3]*float64
	Total      *float64
	Hashes     [3]string
	PeakMemory *float64
	Failed     bool
}

// DB is the run history database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func pointer(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// Record stores every run of a result file. Files without a run id get a
// fresh one. Recording the same file twice replaces its rows.
func (d *DB) Record(ctx context.Context, rf *bench.ResultFile) (string, error) {
	runID := rf.Metadata.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	recorded := rf.Metadata.Timestamp
	if recorded.IsZero() {
		recorded = time.Now()
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO runs (
		run_id, recorded_at, git_branch, git_commit, scrambled, households, backend,
		stage1_time, stage2_time, stage3_time, total_time,
		stage1_hash, stage2_hash, stage3_hash, peak_memory, failed
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rf.Runs {
		_, err := stmt.ExecContext(ctx,
			runID, recorded.UTC().Format(timeLayout), rf.Metadata.GitBranch, rf.Metadata.GitCommit,
			rf.Metadata.ScrambledData, r.Households, r.Backend,
			nullable(r.Stage1Time), nullable(r.Stage2Time), nullable(r.Stage3Time), nullable(r.ExecutionTime),
			r.Stage1Hash, r.Stage2Hash, r.Stage3Hash, nullable(r.PeakMemory), r.Failed(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to record run %d/%s: %w", r.Households, r.Backend, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	logging.Get(logging.CategoryStore).Infow("recorded benchmark runs", "run_id", runID, "runs", len(rf.Runs), "db", d.path)
	return runID, nil
}

// Recent returns up to limit entries, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx, `SELECT
		run_id, recorded_at, git_branch, git_commit, scrambled, households, backend,
		stage1_time, stage2_time, stage3_time, total_time,
		stage1_hash, stage2_hash, stage3_hash, peak_memory, failed
		FROM runs ORDER BY recorded_at DESC, run_id, backend, households LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			recorded          string
			branch, commit    sql.NullString
			s1, s2, s3, total sql.NullFloat64
			h1, h2, h3        sql.NullString
			peak              sql.NullFloat64
		)
		if err := rows.Scan(&e.RunID, &recorded, &branch, &commit, &e.Scrambled, &e.Households, &e.Backend,
			&s1, &s2, &s3, &total, &h1, &h2, &h3, &peak, &e.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		e.RecordedAt, _ = time.Parse(timeLayout, recorded)
		e.GitBranch, e.GitCommit = branch.String, commit.String
		e.StageTimes = [3]*float64{pointer(s1), pointer(s2), pointer(s3)}
		e.Total = pointer(total)
		e.Hashes = [3]string{h1.String, h2.String, h3.String}
		e.PeakMemory = pointer(peak)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Table renders entries for the terminal.
func Table(entries []Entry) *report.Table {
	t := report.NewTable("BENCHMARK HISTORY", "Recorded", "Commit", "Order", "Households", "Backend", "Total (s)", "Peak (MB)", "Stage 3 hash")
	for _, e := range entries {
		order := "sorted"
		if e.Scrambled {
			order = "scrambled"
		}
		hash := e.Hashes[2]
		if len(hash) > 8 {
			hash = hash[:8]
		}
		commit := e.GitCommit
		if commit == "" {
			commit = "-"
		}
		t.AddRow(e.RecordedAt.Local().Format("2006-01-02 15:04"), commit, order, report.Thousands(e.Households),
			e.Backend, report.Seconds(e.Total), report.MB(e.PeakMemory), hash)
	}
	return t
}
