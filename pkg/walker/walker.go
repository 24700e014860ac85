// Package walker implements the constrained Monte Carlo walk (spec §4.1):
// a fixed-length rejection-based random walk under an energy cutoff plus
// auxiliary configuration tests.
package walker

import (
	"fmt"

	"github.com/nsforge/nstool/pkg/errs"
	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/potential"
)

// Walker runs one constrained chain of fixed length from a seed replica
// under an energy cutoff, returning the final replica and acceptance
// counters. A Walker is stateless and safe to share across goroutines as
// long as the Potential, StepKernel, and AcceptTests it holds are
// themselves safe to call concurrently (spec §5: if the concrete
// potential holds mutable caches, give each worker its own instance).
type Walker struct {
	Potential   potential.Potential
	Step        potential.StepKernel
	AcceptTests []potential.AcceptTest
	Events      []potential.Observer
	MCIter      int
}

// New constructs a Walker. mciter must be >= 1.
func New(pot potential.Potential, step potential.StepKernel, tests []potential.AcceptTest, events []potential.Observer, mciter int) *Walker {
	return &Walker{
		Potential:   pot,
		Step:        step,
		AcceptTests: tests,
		Events:      events,
		MCIter:      mciter,
	}
}

// Walk performs exactly w.MCIter trial moves starting from seed, under
// the given cutoff and stepsize, using rng for all randomness. It never
// mutates seed. If zero trials were accepted the seed itself is returned
// unchanged, since it already satisfies cutoff and all accept tests by
// construction of the live set (spec §4.1).
func (w *Walker) Walk(seed nsmodel.Replica, cutoff, stepsize float64, rng *potential.Rand) (nsmodel.WalkResult, error) {
	current := seed.Clone()

	var result nsmodel.WalkResult

	for i := 0; i < w.MCIter; i++ {
		trial := w.Step.Step(current.X, stepsize, rng)

		e, err := w.Potential.Energy(trial)
		if err != nil {
			return nsmodel.WalkResult{}, errs.PotentialWrap(err, errs.ErrPotentialEvalFailed, "potential.energy failed during walk")
		}
		if !potential.IsFinite(e) {
			return nsmodel.WalkResult{}, errs.Potential(errs.ErrPotentialNonFinite, "potential.energy returned a non-finite value").
				WithContext("energy", fmt.Sprintf("%v", e))
		}

		accepted := false
		switch {
		case e >= cutoff:
			result.NReject++
			result.NCutoffReject++
		default:
			if w.allTestsPass(trial) {
				current = nsmodel.Replica{X: trial, E: e}
				result.NAccept++
				accepted = true
			} else {
				result.NReject++
				result.NTestReject++
			}
		}

		for _, obs := range w.Events {
			obs.OnStep(current.X, current.E, accepted)
		}
	}

	result.Replica = current
	return result, nil
}

// allTestsPass short-circuits on the first failing accept test.
func (w *Walker) allTestsPass(x []float64) bool {
	for _, t := range w.AcceptTests {
		if !t.Accept(x) {
			return false
		}
	}
	return true
}
