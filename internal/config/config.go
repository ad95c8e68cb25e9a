package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gettsimarchive/internal/bench"
	"gettsimarchive/internal/blob"
	"gettsimarchive/internal/csvconv"
	"gettsimarchive/internal/sim"
	"gettsimarchive/internal/spreadsheet"
)

// DefaultPath is where the CLI looks for its config file.
const DefaultPath = ".ttarchive/config.yaml"

const dateLayout = "2006-01-02"

// Config holds all ttarchive configuration.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Bench   BenchConfig   `yaml:"bench"`
	Results ResultsConfig `yaml:"results"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig configures the spreadsheet and CSV converters.
type ConvertConfig struct {
	TestDataDir   string                   `yaml:"test_data_dir"`
	Year          int                      `yaml:"year"`
	NoteColumns   []string                 `yaml:"note_columns"`
	SourceColumns []string                 `yaml:"source_columns"`
	Roles         map[string]csvconv.Roles `yaml:"roles"`
	Sheet         spreadsheet.Layout       `yaml:"sheet"`
}

// BenchConfig configures benchmark sweeps.
type BenchConfig struct {
	HouseholdSizes []int    `yaml:"household_sizes"`
	Backends       []string `yaml:"backends"`
	// PolicyDate is YYYY-MM-DD.
	PolicyDate string `yaml:"policy_date"`
	OutputDir  string `yaml:"output_dir"`
	// Workers bounds the parallel backend; 0 means GOMAXPROCS.
	Workers        int    `yaml:"workers"`
	SampleInterval string `yaml:"sample_interval"`
}

// ResultsConfig configures where result files are archived and recorded.
type ResultsConfig struct {
	Driver    string   `yaml:"driver"` // fs, s3
	FSRoot    string   `yaml:"fs_root"`
	S3        S3Config `yaml:"s3"`
	HistoryDB string   `yaml:"history_db"`
}

// S3Config configures the s3 archive driver. Credentials come from the
// default AWS chain.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Convert: ConvertConfig{
			TestDataDir:   filepath.Join("tests", "test_data"),
			Year:          2025,
			NoteColumns:   csvconv.DefaultNoteColumns(),
			SourceColumns: csvconv.DefaultSourceColumns(),
			Roles:         csvconv.DefaultRoles(),
			Sheet:         spreadsheet.DefaultLayout(),
		},
		Bench: BenchConfig{
			HouseholdSizes: append([]int(nil), bench.DefaultSizes...),
			Backends:       append([]string(nil), sim.Backends...),
			PolicyDate:     "2025-01-01",
			OutputDir:      ".",
			SampleInterval: "10ms",
		},
		Results: ResultsConfig{
			Driver: string(blob.DriverFS),
			FSRoot: filepath.Join(".ttarchive", "archive"),
			S3: S3Config{
				Region: "us-east-1",
			},
			HistoryDB: filepath.Join(".ttarchive", "history.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("TTARCHIVE_TEST_DATA_DIR"); dir != "" {
		c.Convert.TestDataDir = dir
	}
	if driver := os.Getenv("TTARCHIVE_RESULTS_DRIVER"); driver != "" {
		c.Results.Driver = driver
	}
	if bucket := os.Getenv("TTARCHIVE_S3_BUCKET"); bucket != "" {
		c.Results.S3.Bucket = bucket
	}
	if region := os.Getenv("TTARCHIVE_S3_REGION"); region != "" {
		c.Results.S3.Region = region
	}
	if endpoint := os.Getenv("TTARCHIVE_S3_ENDPOINT"); endpoint != "" {
		c.Results.S3.Endpoint = endpoint
		// Custom endpoints are almost always MinIO-style.
		c.Results.S3.PathStyle = true
	}
	if path := os.Getenv("TTARCHIVE_HISTORY_DB"); path != "" {
		c.Results.HistoryDB = path
	}
	if level := os.Getenv("TTARCHIVE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetSampleInterval returns the memory sampling interval as a duration.
func (c *Config) GetSampleInterval() time.Duration {
	d, err := time.ParseDuration(c.Bench.SampleInterval)
	if err != nil || d <= 0 {
		return 10 * time.Millisecond
	}
	return d
}

// GetPolicyDate returns the benchmark policy date.
func (c *Config) GetPolicyDate() time.Time {
	d, err := time.Parse(dateLayout, c.Bench.PolicyDate)
	if err != nil {
		return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

// BlobOptions returns the archive driver options.
func (c *Config) BlobOptions() blob.Options {
	return blob.Options{
		Driver: blob.Driver(c.Results.Driver),
		Root:   c.Results.FSRoot,
		S3: blob.S3Options{
			Bucket:    c.Results.S3.Bucket,
			Region:    c.Results.S3.Region,
			Endpoint:  c.Results.S3.Endpoint,
			PathStyle: c.Results.S3.PathStyle,
		},
	}
}

// Converter returns a CSV converter writing below the test data directory.
func (c *Config) Converter() *csvconv.Converter {
	conv := csvconv.NewConverter(c.Convert.TestDataDir)
	if c.Convert.Roles != nil {
		conv.Roles = c.Convert.Roles
	}
	if c.Convert.NoteColumns != nil {
		conv.NoteColumns = c.Convert.NoteColumns
	}
	if c.Convert.SourceColumns != nil {
		conv.SourceColumns = c.Convert.SourceColumns
	}
	return conv
}

// ValidDrivers lists the supported archive drivers.
var ValidDrivers = []string{string(blob.DriverFS), string(blob.DriverS3)}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var problems []string

	for _, n := range c.Bench.HouseholdSizes {
		if n <= 0 {
			problems = append(problems, fmt.Sprintf("household size must be positive, got %d", n))
		}
	}
	for _, b := range c.Bench.Backends {
		if !slices.Contains(sim.Backends, b) {
			problems = append(problems, fmt.Sprintf("invalid backend: %s (valid: %v)", b, sim.Backends))
		}
	}
	if c.Bench.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must be >= 0, got %d", c.Bench.Workers))
	}
	if _, err := time.Parse(dateLayout, c.Bench.PolicyDate); err != nil {
		problems = append(problems, fmt.Sprintf("invalid policy date %q (want YYYY-MM-DD)", c.Bench.PolicyDate))
	}
	if c.Bench.SampleInterval != "" {
		if d, err := time.ParseDuration(c.Bench.SampleInterval); err != nil || d <= 0 {
			problems = append(problems, fmt.Sprintf("invalid sample interval %q", c.Bench.SampleInterval))
		}
	}

	if !slices.Contains(ValidDrivers, c.Results.Driver) {
		problems = append(problems, fmt.Sprintf("invalid results driver: %s (valid: %v)", c.Results.Driver, ValidDrivers))
	}
	if c.Results.Driver == string(blob.DriverS3) && c.Results.S3.Bucket == "" {
		problems = append(problems, "s3 bucket not configured (set results.s3.bucket or TTARCHIVE_S3_BUCKET)")
	}

	if err := c.Logging.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
