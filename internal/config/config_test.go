package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Results.Driver != "fs" {
		t.Errorf("expected Driver=fs, got %s", cfg.Results.Driver)
	}
	if len(cfg.Bench.HouseholdSizes) != 7 {
		t.Errorf("expected 7 household sizes, got %d", len(cfg.Bench.HouseholdSizes))
	}
	if _, ok := cfg.Convert.Roles["lohnst"]; !ok {
		t.Error("expected default roles for lohnst")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("TTARCHIVE_RESULTS_DRIVER", "")
	t.Setenv("TTARCHIVE_S3_BUCKET", "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Bench.HouseholdSizes = []int{10, 20}
	cfg.Bench.Workers = 3
	cfg.Results.Driver = "s3"
	cfg.Results.S3.Bucket = "bench-results"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := loaded.Bench.HouseholdSizes; len(got) != 2 || got[1] != 20 {
		t.Errorf("expected sizes [10 20], got %v", got)
	}
	if loaded.Bench.Workers != 3 {
		t.Errorf("expected Workers=3, got %d", loaded.Bench.Workers)
	}
	if loaded.Results.S3.Bucket != "bench-results" {
		t.Errorf("expected bucket=bench-results, got %s", loaded.Results.S3.Bucket)
	}
	if loaded.Convert.Sheet.HeaderRow != 1 {
		t.Errorf("expected sheet header row to survive, got %d", loaded.Convert.Sheet.HeaderRow)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default level, got %s", cfg.Logging.Level)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bench: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Getters(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetSampleInterval(); got != 10*time.Millisecond {
		t.Errorf("expected 10ms, got %v", got)
	}
	cfg.Bench.SampleInterval = "garbage"
	if got := cfg.GetSampleInterval(); got != 10*time.Millisecond {
		t.Errorf("expected fallback 10ms, got %v", got)
	}
	cfg.Bench.PolicyDate = "2024-07-01"
	if got := cfg.GetPolicyDate(); !got.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected policy date %v", got)
	}
}

func TestConfig_Converter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Convert.TestDataDir = "data"
	cfg.Convert.NoteColumns = []string{"remark"}
	conv := cfg.Converter()
	if conv.OutDir != "data" {
		t.Errorf("expected OutDir=data, got %s", conv.OutDir)
	}
	if len(conv.NoteColumns) != 1 || conv.NoteColumns[0] != "remark" {
		t.Errorf("expected configured note columns, got %v", conv.NoteColumns)
	}
}
