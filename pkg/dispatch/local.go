package dispatch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/potential"
	"github.com/nsforge/nstool/pkg/walker"
)

// WalkerFactory returns an independent Walker for one worker goroutine.
// Each call must return a Walker backed by its own Potential instance if
// the concrete potential holds mutable caches (spec §5); sharing a
// read-only potential across factories is fine.
type WalkerFactory func() *walker.Walker

// LocalPool is a fixed-size worker pool of nproc goroutines that execute
// MonteCarloWalker.Walk. It is work-conserving: errgroup.SetLimit caps
// in-flight goroutines at Nproc, and the next queued job starts the
// instant a slot frees up.
type LocalPool struct {
	Nproc     int
	NewWalker WalkerFactory
}

// NewLocalPool constructs a LocalPool with the given worker count and
// walker factory.
func NewLocalPool(nproc int, newWalker WalkerFactory) *LocalPool {
	return &LocalPool{Nproc: nproc, NewWalker: newWalker}
}

// RunBatch implements Dispatcher. Each job is assigned its own Rand seeded
// from job.SeedRNG, and its own Walker from NewWalker, so walks never
// share mutable state.
func (p *LocalPool) RunBatch(ctx context.Context, jobs []nsmodel.WalkJob) ([]nsmodel.WalkResult, error) {
	results := make([]nsmodel.WalkResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Nproc)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			w := p.NewWalker()
			rng := potential.NewRand(job.SeedRNG)
			result, err := w.Walk(job.Seed, job.Cutoff, job.Stepsize, rng)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close is a no-op for LocalPool: goroutines are per-batch and exit on
// their own when RunBatch returns.
func (p *LocalPool) Close() error { return nil }
