package bench

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"gettsimarchive/internal/gitinfo"
	"gettsimarchive/internal/sim"
)

// Suite is a sweep over backends and household sizes.
type Suite struct {
	Sizes          []int
	Backends       []string
	Workers        int
	Scramble       bool
	PolicyDate     time.Time
	SampleInterval time.Duration
	Git            gitinfo.Info
	Out            io.Writer
	// Now stamps the result file when the sweep ends; nil means time.Now.
	Now func() time.Time
}

// Run benchmarks every size on every backend, backend by backend. Failed
// runs are recorded and the sweep continues; only an unknown backend or a
// cancelled context stops it.
func (s *Suite) Run(ctx context.Context) (*ResultFile, error) {
	for _, b := range s.Backends {
		if _, err := sim.GetBackend(b, s.Workers); err != nil {
			return nil, err
		}
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	w := s.Out
	if w == nil {
		w = io.Discard
	}

	rf := &ResultFile{
		Metadata: Metadata{
			RunID:          uuid.NewString(),
			HouseholdSizes: append([]int(nil), s.Sizes...),
			Backends:       append([]string(nil), s.Backends...),
			ScrambledData:  s.Scramble,
			GitBranch:      s.Git.Branch,
			GitCommit:      s.Git.Commit,
			GoVersion:      runtime.Version(),
		},
		Runs: make([]RunResult, 0, len(s.Sizes)*len(s.Backends)),
	}

	bar := strings.Repeat("=", 60)
	for _, backend := range s.Backends {
		fmt.Fprintf(w, "\n%s\nTesting %s backend\n", bar, backend)
		if s.Scramble {
			fmt.Fprintln(w, "Data scrambling: ENABLED (unsorted p_id order)")
		} else {
			fmt.Fprintln(w, "Data scrambling: DISABLED (sorted p_id order)")
		}
		fmt.Fprintln(w, bar)

		for _, n := range s.Sizes {
			if err := ctx.Err(); err != nil {
				rf.Metadata.Timestamp = now()
				return rf, err
			}
			// Run logs and records its own failure.
			r, _ := Run(ctx, RunConfig{
				Households:     n,
				Backend:        backend,
				Workers:        s.Workers,
				Scramble:       s.Scramble,
				PolicyDate:     s.PolicyDate,
				SampleInterval: s.SampleInterval,
				Out:            w,
			})
			rf.Runs = append(rf.Runs, r)
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s backend tests completed\n", backend)
	}
	rf.Metadata.Timestamp = now()
	return rf, ctx.Err()
}
