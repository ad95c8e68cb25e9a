package bench

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Legacy result files are one flat object keyed "<N>_<backend>_<field>",
// for example "32768_numpy_stage2_time", next to a "metadata" object.

type legacyMetadata struct {
	Timestamp      string   `json:"timestamp"`
	HouseholdSizes []int    `json:"household_sizes"`
	Backends       []string `json:"backends"`
	ScrambledData  bool     `json:"scrambled_data"`
}

type legacyField struct {
	suffix string
	set    func(r *RunResult, raw json.RawMessage) error
}

func floatField(pick func(r *RunResult) **float64) func(*RunResult, json.RawMessage) error {
	return func(r *RunResult, raw json.RawMessage) error {
		return json.Unmarshal(raw, pick(r))
	}
}

func hashField(pick func(r *RunResult) *string) func(*RunResult, json.RawMessage) error {
	return func(r *RunResult, raw json.RawMessage) error {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s != nil {
			*pick(r) = *s
		}
		return nil
	}
}

// Longer suffixes come before the suffixes they end with.
var legacyFields = []legacyField{
	{"_stage1_time", floatField(func(r *RunResult) **float64 { return &r.Stage1Time })},
	{"_stage2_time", floatField(func(r *RunResult) **float64 { return &r.Stage2Time })},
	{"_stage3_time", floatField(func(r *RunResult) **float64 { return &r.Stage3Time })},
	{"_stage1_hash", hashField(func(r *RunResult) *string { return &r.Stage1Hash })},
	{"_stage2_hash", hashField(func(r *RunResult) *string { return &r.Stage2Hash })},
	{"_stage3_hash", hashField(func(r *RunResult) *string { return &r.Stage3Hash })},
	{"_initial_memory", floatField(func(r *RunResult) **float64 { return &r.InitialMemory })},
	{"_final_memory", floatField(func(r *RunResult) **float64 { return &r.FinalMemory })},
	{"_peak_memory", floatField(func(r *RunResult) **float64 { return &r.PeakMemory })},
	{"_memory_delta", floatField(func(r *RunResult) **float64 { return &r.MemoryDelta })},
	{"_result_shape", func(r *RunResult, raw json.RawMessage) error {
		var shape []int
		if json.Unmarshal(raw, &shape) == nil {
			r.ResultShape = shape
		}
		return nil
	}},
	{"_time", floatField(func(r *RunResult) **float64 { return &r.ExecutionTime })},
	{"_hash", func(*RunResult, json.RawMessage) error { return nil }},
}

var legacyTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseLegacyTimestamp(s string) time.Time {
	for _, layout := range legacyTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

type runKey struct {
	households int
	backend    string
}

func decodeLegacy(top map[string]json.RawMessage) (*ResultFile, error) {
	rf := &ResultFile{}
	if raw, ok := top["metadata"]; ok {
		var md legacyMetadata
		if err := json.Unmarshal(raw, &md); err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrMalformedResults, err)
		}
		rf.Metadata = Metadata{
			Timestamp:      parseLegacyTimestamp(md.Timestamp),
			HouseholdSizes: md.HouseholdSizes,
			Backends:       md.Backends,
			ScrambledData:  md.ScrambledData,
		}
	}

	runs := map[runKey]*RunResult{}
	totals := map[int]bool{}
	for key, raw := range top {
		if key == "metadata" {
			continue
		}
		num, rest, ok := strings.Cut(key, "_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		for _, f := range legacyFields {
			backend, found := strings.CutSuffix(rest, f.suffix)
			if !found || backend == "" {
				continue
			}
			k := runKey{n, backend}
			r := runs[k]
			if r == nil {
				r = &RunResult{Households: n, Backend: backend}
				runs[k] = r
			}
			if err := f.set(r, raw); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResults, key, err)
			}
			if f.suffix == "_time" {
				totals[n] = true
			}
			break
		}
	}
	if len(runs) == 0 && top["metadata"] == nil {
		return nil, fmt.Errorf("%w: no benchmark entries", ErrMalformedResults)
	}

	if len(rf.Metadata.HouseholdSizes) == 0 {
		for n := range totals {
			rf.Metadata.HouseholdSizes = append(rf.Metadata.HouseholdSizes, n)
		}
		sort.Ints(rf.Metadata.HouseholdSizes)
	}
	backends := rf.Metadata.Backends
	if len(backends) == 0 {
		set := map[string]bool{}
		for k := range runs {
			set[k.backend] = true
		}
		backends = OrderBackends(set)
		rf.Metadata.Backends = backends
	}
	rank := map[string]int{}
	for i, b := range backends {
		rank[b] = i + 1
	}

	rf.Runs = make([]RunResult, 0, len(runs))
	for _, r := range runs {
		rf.Runs = append(rf.Runs, *r)
	}
	sort.Slice(rf.Runs, func(i, j int) bool {
		a, b := rf.Runs[i], rf.Runs[j]
		if rank[a.Backend] != rank[b.Backend] {
			if rank[a.Backend] == 0 || rank[b.Backend] == 0 {
				return rank[b.Backend] == 0
			}
			return rank[a.Backend] < rank[b.Backend]
		}
		if a.Backend != b.Backend {
			return a.Backend < b.Backend
		}
		return a.Households < b.Households
	})
	return rf, nil
}
