// Package nsmodel defines the core value types shared by the nested
// sampling engine, walker, and dispatcher: replicas, walk jobs/results,
// and adaptive step-size state.
package nsmodel

// Replica is an immutable (coordinates, energy) pair. Once constructed a
// Replica is never mutated; evolving a replica means constructing a new
// one. Coordinates are owned exclusively by the Replica that holds them —
// Clone must be used before handing coordinates to a worker that may
// mutate them in place.
type Replica struct {
	X []float64
	E float64
}

// NewReplica constructs a Replica, taking ownership of x (callers should
// not retain or mutate x afterward; use Clone for a defensive copy).
func NewReplica(x []float64, e float64) Replica {
	return Replica{X: x, E: e}
}

// Clone returns a deep copy of r, safe to hand to an independent worker.
func (r Replica) Clone() Replica {
	x := make([]float64, len(r.X))
	copy(x, r.X)
	return Replica{X: x, E: r.E}
}

// Ndof returns the number of degrees of freedom in this replica.
func (r Replica) Ndof() int {
	return len(r.X)
}

// WalkJob is the input to one constrained Monte Carlo walk: a seed
// replica, the energy cutoff the walk must respect, the current
// step size, and a per-job RNG seed derived from the engine's master RNG.
type WalkJob struct {
	Seed     Replica
	Cutoff   float64
	Stepsize float64
	SeedRNG  uint64
}

// WalkResult is the output of one constrained walk: the final replica and
// acceptance/rejection counters broken out by rejection reason.
type WalkResult struct {
	Replica       Replica
	NAccept       uint64
	NReject       uint64
	NCutoffReject uint64
	NTestReject   uint64
}

// TrialTotal returns the total number of trial moves attempted
// (NAccept + NReject).
func (r WalkResult) TrialTotal() uint64 {
	return r.NAccept + r.NReject
}

// AdaptiveState tracks the step-size control loop's running counters for
// one NS iteration (or a rolling window, at the caller's discretion).
type AdaptiveState struct {
	Stepsize    float64
	AcceptTotal uint64
	TrialTotal  uint64
}

// AcceptRatio returns AcceptTotal / TrialTotal, or 0 if no trials ran yet.
func (a AdaptiveState) AcceptRatio() float64 {
	if a.TrialTotal == 0 {
		return 0
	}
	return float64(a.AcceptTotal) / float64(a.TrialTotal)
}

// Clamp restricts stepsize to [min, max]. If min > max, max wins (the
// caller is responsible for validating stepsize_min <= max_stepsize at
// configuration time; this is a last-resort safety net).
func Clamp(stepsize, min, max float64) float64 {
	if min > max {
		return max
	}
	if stepsize < min {
		return min
	}
	if stepsize > max {
		return max
	}
	return stepsize
}
