package engine

import (
	"fmt"
	"time"

	"github.com/nsforge/nstool/pkg/dispatch"
	"github.com/nsforge/nstool/pkg/errs"
	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/potential"
	"github.com/nsforge/nstool/pkg/walker"
)

// Options are the engine construction options recognized by spec §4.3.
// New fills in K and TargetRatio when they are left zero.
type Options struct {
	Replicas    []nsmodel.Replica
	Walker      *walker.Walker
	Dispatcher  dispatch.Dispatcher
	Nproc       int
	Stepsize    float64
	StepsizeMin float64
	MaxStepsize float64
	Mciter      int
	K           int
	Etol        float64
	MaxIter     int
	TargetRatio float64
	Seed        uint64
	EventSinks  []potential.Observer

	// BatchTimeout bounds the wall-clock time a single iteration's batch
	// dispatch may take (spec §5/§7). Zero means unlimited.
	BatchTimeout time.Duration
}

// DefaultTargetRatio is applied when Options.TargetRatio is left zero.
const DefaultTargetRatio = 0.5

// adaptAlpha is the exponent in the step-size adaptation rule
// f(r) = exp(alpha*(r-target_ratio)) (spec §9 Open Question resolved:
// monotone, continuous, f(target_ratio)=1).
const adaptAlpha = 2.0

// validate checks the construction options against spec §4.3/§7's
// configuration-error rules and fills in defaults.
func (o *Options) validate() error {
	n := len(o.Replicas)
	if n < 2 {
		return errs.Config(errs.ErrConfigInvalidN, "nreplicas must be >= 2").
			WithContext("n", fmt.Sprintf("%v", n))
	}
	if o.Nproc < 1 {
		return errs.Config(errs.ErrConfigInvalidNproc, "nproc must be >= 1").
			WithContext("nproc", fmt.Sprintf("%v", o.Nproc))
	}
	if o.K == 0 {
		o.K = o.Nproc
	}
	if o.K < 1 || o.K >= n {
		return errs.Config(errs.ErrConfigInvalidK, "K must satisfy 1 <= K < N").
			WithContext("k", fmt.Sprintf("%v", o.K)).WithContext("n", fmt.Sprintf("%v", n))
	}
	if o.Stepsize <= 0 {
		return errs.Config(errs.ErrConfigInvalidN, "stepsize must be > 0").
			WithContext("stepsize", fmt.Sprintf("%v", o.Stepsize))
	}
	if o.MaxStepsize < o.Stepsize {
		return errs.Config(errs.ErrConfigInvalidN, "max_stepsize must be >= stepsize").
			WithContext("max_stepsize", fmt.Sprintf("%v", o.MaxStepsize)).WithContext("stepsize", fmt.Sprintf("%v", o.Stepsize))
	}
	if o.Mciter < 1 {
		return errs.Config(errs.ErrConfigInvalidN, "mciter must be >= 1").
			WithContext("mciter", fmt.Sprintf("%v", o.Mciter))
	}
	if o.Etol < 0 {
		return errs.Config(errs.ErrConfigInvalidN, "etol must be >= 0").
			WithContext("etol", fmt.Sprintf("%v", o.Etol))
	}
	if o.TargetRatio == 0 {
		o.TargetRatio = DefaultTargetRatio
	}
	if o.TargetRatio <= 0 || o.TargetRatio >= 1 {
		return errs.Config(errs.ErrConfigInvalidN, "target_ratio must be in (0, 1)").
			WithContext("target_ratio", fmt.Sprintf("%v", o.TargetRatio))
	}
	if o.Walker == nil {
		return errs.Config(errs.ErrConfigInvalidN, "walker is required")
	}
	if o.Dispatcher == nil {
		return errs.Config(errs.ErrConfigMissingEndpoint, "dispatcher is required")
	}
	return nil
}
