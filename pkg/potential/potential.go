// Package potential defines the capability interfaces an energy function,
// a step kernel, and an acceptance test must satisfy to drive the nested
// sampling engine, plus a small set of concrete implementations (harmonic
// oscillator, uniform random-walk step, box constraint) used by the
// scenario tests in pkg/engine.
package potential

import "math"

// Potential is a scalar energy function over a configuration space of
// fixed dimensionality. Energy evaluates x; it is free to return an error
// (a fatal WalkError per spec) but must never panic. RandomConfiguration
// draws an initial configuration, used to seed the live set.
type Potential interface {
	// Energy returns the scalar energy at x. A non-finite result is
	// treated as a fatal error by the walker.
	Energy(x []float64) (float64, error)

	// RandomConfiguration draws a fresh configuration for live-set
	// initialization.
	RandomConfiguration(rng *Rand) []float64

	// Ndof returns the number of degrees of freedom.
	Ndof() int
}

// StepKernel proposes a new configuration from the current one. It must
// be symmetric: the probability of proposing x' from x equals the
// probability of proposing x from x'. The walker's acceptance rule is
// pure hard-wall rejection, which assumes this symmetry (detailed
// balance) holds.
type StepKernel interface {
	Step(x []float64, stepsize float64, rng *Rand) []float64
}

// AcceptTest is a pure, cheap, total predicate over a trial configuration.
// It must never panic; a raise is fatal per spec §4.1.
type AcceptTest interface {
	Accept(x []float64) bool
}

// Observer is a pure per-step watcher invoked by the walker after each
// trial's accept/reject decision settles. Observers must not mutate the
// state they are given.
type Observer interface {
	OnStep(x []float64, e float64, accepted bool)
}

// IsFinite reports whether e is neither NaN nor +/-Inf.
func IsFinite(e float64) bool {
	return !math.IsNaN(e) && !math.IsInf(e, 0)
}
