package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Backend runs a data-parallel loop over [0, n).
type Backend interface {
	Name() string
	// For calls fn on disjoint half-open ranges that cover [0, n). fn must
	// only write to indices inside its range.
	For(ctx context.Context, n int, fn func(lo, hi int)) error
}

// Backend names.
const (
	BackendSerial   = "serial"
	BackendParallel = "parallel"
)

// Backends lists the known backend names in report order.
var Backends = []string{BackendSerial, BackendParallel}

// GetBackend returns a backend by name. workers applies to the parallel
// backend; zero means GOMAXPROCS.
func GetBackend(name string, workers int) (Backend, error) {
	switch name {
	case BackendSerial:
		return Serial{}, nil
	case BackendParallel:
		return NewParallel(workers), nil
	}
	return nil, fmt.Errorf("%w: %q (valid: %v)", ErrUnknownBackend, name, Backends)
}

// Serial evaluates on the calling goroutine.
type Serial struct{}

func (Serial) Name() string { return BackendSerial }

func (Serial) For(ctx context.Context, n int, fn func(lo, hi int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n > 0 {
		fn(0, n)
	}
	return nil
}

// minChunk keeps tiny loops on few goroutines.
const minChunk = 4096

// Parallel splits loops into contiguous chunks evaluated by a bounded
// number of goroutines.
type Parallel struct {
	Workers int
}

// NewParallel returns a parallel backend; workers <= 0 means GOMAXPROCS.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Parallel{Workers: workers}
}

func (p *Parallel) Name() string { return BackendParallel }

func (p *Parallel) For(ctx context.Context, n int, fn func(lo, hi int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	chunk := (n + p.Workers - 1) / p.Workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}
