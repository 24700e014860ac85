// Package engine implements the nested sampling iteration engine (spec
// §4.3): live-set bookkeeping, energy-ordered removal and replacement,
// adaptive step-size control, and termination.
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/nsforge/nstool/pkg/errs"
	"github.com/nsforge/nstool/pkg/nsmodel"
)

// Status is the terminal state of a completed or aborted run.
type Status string

const (
	StatusOK            Status = "ok"
	StatusWalkerFatal   Status = "walker_fatal"
	StatusDispatchFatal Status = "dispatch_fatal"
	StatusTimeout       Status = "timeout"
	StatusCancelled     Status = "cancelled"
)

// Result is the outcome of a Run: the discarded-energy trace, the final
// live set, and the terminal status.
type Result struct {
	Status          Status
	DiscardedEnergy []float64
	FinalLive       []nsmodel.Replica
	Iterations      int
	Err             error
}

// IterationRecord is emitted once per completed iteration, for sinks
// (trace writers, progress bars, event hubs) that want live updates.
type IterationRecord struct {
	Iteration  int
	Ecut       float64
	Stepsize   float64
	AcceptRate float64
	EMinLive   float64
	EMaxLive   float64
}

// IterationObserver receives one IterationRecord per completed NS
// iteration.
type IterationObserver interface {
	OnIteration(IterationRecord)
}

// Engine runs the nested sampling loop described by spec §4.3. It is not
// safe for concurrent use — the engine itself is single-threaded and
// owns the live set exclusively (spec §5).
type Engine struct {
	opts Options
	rng  *rand.Rand

	live     []nsmodel.Replica
	stepsize float64

	observers []IterationObserver
}

// New constructs an Engine, validating the construction options per spec
// §4.3/§7.
func New(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	live := make([]nsmodel.Replica, len(opts.Replicas))
	copy(live, opts.Replicas)

	seed := opts.Seed
	rng := rand.New(rand.NewPCG(seed, seed^0x2545F4914F6CDD1D))

	return &Engine{
		opts:     opts,
		rng:      rng,
		live:     live,
		stepsize: opts.Stepsize,
	}, nil
}

// AddObserver registers an IterationObserver to be notified after every
// completed iteration.
func (e *Engine) AddObserver(obs IterationObserver) {
	e.observers = append(e.observers, obs)
}

// Run executes iterations until a termination condition from spec §4.3
// step 8 is met: the live-set energy spread falls below etol, max_iter
// is reached, or ctx is cancelled. It returns the discarded-energy trace
// and the final live set even on a fatal or cancelled stop (spec §7
// policy: flush buffered output before returning).
func (e *Engine) Run(ctx context.Context) Result {
	var discarded []float64

	for iteration := 1; ; iteration++ {
		select {
		case <-ctx.Done():
			return e.finish(StatusCancelled, discarded, iteration-1, errs.Cancellation(errs.ErrRunCancelled, "run cancelled"))
		default:
		}

		sort.Slice(e.live, func(i, j int) bool { return e.live[i].E < e.live[j].E })

		k := e.opts.K
		n := len(e.live)
		// After ascending sort, the K highest-energy replicas occupy the
		// tail [n-k, n); ecut is the lowest of those — the boundary new
		// walks must stay strictly under.
		ecut := e.live[n-k].E
		for _, r := range e.live[n-k:] {
			discarded = append(discarded, r.E)
		}

		jobs, err := e.buildJobs(k, ecut)
		if err != nil {
			return e.finish(StatusDispatchFatal, discarded, iteration-1, err)
		}

		batchCtx := ctx
		var batchCancel context.CancelFunc
		if e.opts.BatchTimeout > 0 {
			batchCtx, batchCancel = context.WithTimeout(ctx, e.opts.BatchTimeout)
		}
		results, err := e.opts.Dispatcher.RunBatch(batchCtx, jobs)
		if batchCancel != nil {
			batchCancel()
		}
		if err != nil {
			if batchCtx.Err() == context.DeadlineExceeded {
				return e.finish(StatusTimeout, discarded, iteration-1,
					errs.Timeout(errs.ErrBatchTimeout, "batch exceeded wall-clock budget").WithCause(err).
						WithContext("batch_timeout", e.opts.BatchTimeout.String()))
			}
			return e.finish(StatusDispatchFatal, discarded, iteration-1, errs.Transport(errs.ErrTransportRequestFailed, "dispatcher batch failed").WithCause(err))
		}

		var acc, trl uint64
		for i, res := range results {
			if res.Replica.E >= ecut {
				return e.finish(StatusWalkerFatal, discarded, iteration-1,
					errs.Invariant(errs.ErrInvariantCutoffViolated, "walk result violates cutoff").
						WithContext("energy", fmt.Sprintf("%v", res.Replica.E)).WithContext("cutoff", fmt.Sprintf("%v", ecut)))
			}
			e.live[n-k+i] = res.Replica
			acc += res.NAccept
			trl += res.TrialTotal()
		}

		e.adaptStepsize(acc, trl)

		emin, emax := e.liveBounds()
		rate := 0.0
		if trl > 0 {
			rate = float64(acc) / float64(trl)
		}
		e.notify(IterationRecord{
			Iteration:  iteration,
			Ecut:       ecut,
			Stepsize:   e.stepsize,
			AcceptRate: rate,
			EMinLive:   emin,
			EMaxLive:   emax,
		})

		if emax-emin < e.opts.Etol {
			return e.finish(StatusOK, discarded, iteration, nil)
		}
		if e.opts.MaxIter > 0 && iteration >= e.opts.MaxIter {
			return e.finish(StatusOK, discarded, iteration, nil)
		}
	}
}

// buildJobs samples K seeds without replacement from the N-K surviving
// (lower-energy) replicas occupying e.live[:n-k], and builds one WalkJob
// per seed at the current cutoff and stepsize.
func (e *Engine) buildJobs(k int, ecut float64) ([]nsmodel.WalkJob, error) {
	n := len(e.live)
	survivors := n - k
	if survivors <= 0 {
		return nil, errs.Internal(errs.ErrInternalUnexpected, "no surviving replicas to seed from")
	}

	seedIdx := fisherYatesSample(e.rng, survivors, k)

	jobs := make([]nsmodel.WalkJob, k)
	for i, si := range seedIdx {
		seed := e.live[si]
		jobs[i] = nsmodel.WalkJob{
			Seed:     seed.Clone(),
			Cutoff:   ecut,
			Stepsize: e.stepsize,
			SeedRNG:  e.rng.Uint64(),
		}
	}
	return jobs, nil
}

// fisherYatesSample draws k indices without replacement from [0, n) via
// a partial Fisher-Yates shuffle, using rng for all draws (spec §9 Open
// Question: without-replacement seed sampling driven by the master RNG).
func fisherYatesSample(rng *rand.Rand, n, k int) []int {
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	if k > n {
		k = n
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// adaptStepsize applies f(r) = exp(alpha*(r-target_ratio)) multiplicatively
// and clamps to [stepsize_min, max_stepsize] (spec §9 Open Question).
func (e *Engine) adaptStepsize(acc, trl uint64) {
	if trl == 0 {
		return
	}
	r := float64(acc) / float64(trl)
	f := math.Exp(adaptAlpha * (r - e.opts.TargetRatio))
	e.stepsize = nsmodel.Clamp(e.stepsize*f, e.opts.StepsizeMin, e.opts.MaxStepsize)
}

func (e *Engine) liveBounds() (min, max float64) {
	min, max = e.live[0].E, e.live[0].E
	for _, r := range e.live {
		if r.E < min {
			min = r.E
		}
		if r.E > max {
			max = r.E
		}
	}
	return min, max
}

func (e *Engine) notify(rec IterationRecord) {
	for _, obs := range e.observers {
		obs.OnIteration(rec)
	}
}

func (e *Engine) finish(status Status, discarded []float64, iterations int, err error) Result {
	final := make([]nsmodel.Replica, len(e.live))
	copy(final, e.live)
	sort.Slice(final, func(i, j int) bool { return final[i].E < final[j].E })
	return Result{
		Status:          status,
		DiscardedEnergy: discarded,
		FinalLive:       final,
		Iterations:      iterations,
		Err:             err,
	}
}

