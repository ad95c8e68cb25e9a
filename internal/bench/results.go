package bench

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gettsimarchive/internal/sim"
)

// ErrMalformedResults reports a result file that cannot be decoded.
var ErrMalformedResults = errors.New("malformed benchmark results")

// Stage numbers; StageTotal selects the total execution time.
const (
	StageTotal = 0
	Stage1     = 1
	Stage2     = 2
	Stage3     = 3
)

// RunResult is one benchmark run. Times and memory readings are nil for a
// failed run.
type RunResult struct {
	Households int    `json:"households"`
	Backend    string `json:"backend"`

	Stage1Time    *float64 `json:"stage1_time"`
	Stage2Time    *float64 `json:"stage2_time"`
	Stage3Time    *float64 `json:"stage3_time"`
	ExecutionTime *float64 `json:"execution_time"`

	Stage1Hash string `json:"stage1_hash,omitempty"`
	Stage2Hash string `json:"stage2_hash,omitempty"`
	Stage3Hash string `json:"stage3_hash,omitempty"`

	InitialMemory *float64 `json:"initial_memory"`
	FinalMemory   *float64 `json:"final_memory"`
	MemoryDelta   *float64 `json:"memory_delta"`
	PeakMemory    *float64 `json:"peak_memory"`

	ResultShape []int  `json:"result_shape,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Failed reports whether the run produced no timing.
func (r RunResult) Failed() bool { return r.ExecutionTime == nil }

// Time returns the time of a stage, or the total for StageTotal.
func (r RunResult) Time(stage int) *float64 {
	switch stage {
	case Stage1:
		return r.Stage1Time
	case Stage2:
		return r.Stage2Time
	case Stage3:
		return r.Stage3Time
	}
	return r.ExecutionTime
}

// Hash returns the hash of a stage.
func (r RunResult) Hash(stage int) string {
	switch stage {
	case Stage1:
		return r.Stage1Hash
	case Stage2:
		return r.Stage2Hash
	case Stage3:
		return r.Stage3Hash
	}
	return ""
}

// Metadata describes a benchmark sweep.
type Metadata struct {
	Timestamp      time.Time `json:"timestamp"`
	RunID          string    `json:"run_id,omitempty"`
	HouseholdSizes []int     `json:"household_sizes"`
	Backends       []string  `json:"backends"`
	ScrambledData  bool      `json:"scrambled_data"`
	GitBranch      string    `json:"git_branch,omitempty"`
	GitCommit      string    `json:"git_commit,omitempty"`
	GoVersion      string    `json:"go_version,omitempty"`
}

// ResultFile is the JSON document written by a sweep.
type ResultFile struct {
	Metadata Metadata    `json:"metadata"`
	Runs     []RunResult `json:"runs"`
}

// Find returns the run for a size and backend.
func (rf *ResultFile) Find(households int, backend string) (RunResult, bool) {
	for _, r := range rf.Runs {
		if r.Households == households && r.Backend == backend {
			return r, true
		}
	}
	return RunResult{}, false
}

// Sizes returns the household sizes from the metadata or, failing that,
// from the runs, ascending.
func (rf *ResultFile) Sizes() []int {
	if len(rf.Metadata.HouseholdSizes) > 0 {
		return append([]int(nil), rf.Metadata.HouseholdSizes...)
	}
	seen := map[int]bool{}
	var out []int
	for _, r := range rf.Runs {
		if !seen[r.Households] {
			seen[r.Households] = true
			out = append(out, r.Households)
		}
	}
	sort.Ints(out)
	return out
}

// BackendNames returns the backends with runs or listed in the metadata.
// Known backends come first in sim.Backends order, others sorted.
func (rf *ResultFile) BackendNames() []string {
	present := map[string]bool{}
	for _, b := range rf.Metadata.Backends {
		present[b] = true
	}
	for _, r := range rf.Runs {
		present[r.Backend] = true
	}
	return OrderBackends(present)
}

// OrderBackends sorts a set of backend names, known ones first.
func OrderBackends(set map[string]bool) []string {
	var out []string
	for _, b := range sim.Backends {
		if set[b] {
			out = append(out, b)
		}
	}
	var rest []string
	for b := range set {
		known := false
		for _, k := range sim.Backends {
			known = known || b == k
		}
		if !known {
			rest = append(rest, b)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// FileName returns the name a sweep started at t is saved under.
func FileName(t time.Time, scrambled bool) string {
	suffix := "sorted"
	if scrambled {
		suffix = "scrambled"
	}
	return fmt.Sprintf("benchmark_results_%s_%s.json", t.Format("20060102_150405"), suffix)
}

// Save writes rf as indented JSON to dir and returns the path.
func Save(dir string, rf *ResultFile) (string, error) {
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create results dir: %w", err)
		}
	}
	path := filepath.Join(dir, FileName(rf.Metadata.Timestamp, rf.Metadata.ScrambledData))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}
	return path, nil
}

// Load reads a result file in the current format or the legacy flat-key
// format.
func Load(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses result file contents.
func Decode(data []byte) (*ResultFile, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResults, err)
	}
	if _, ok := top["runs"]; ok {
		var rf ResultFile
		if err := json.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResults, err)
		}
		return &rf, nil
	}
	return decodeLegacy(top)
}
