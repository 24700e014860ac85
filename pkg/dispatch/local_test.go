package dispatch

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/potential"
	"github.com/nsforge/nstool/pkg/walker"
)

func TestLocalPoolPreservesOrder(t *testing.T) {
	h := potential.NewHarmonic(1, 10)
	factory := func() *walker.Walker {
		return walker.New(h, potential.UniformStep{}, nil, nil, 20)
	}
	pool := NewLocalPool(4, factory)

	jobs := make([]nsmodel.WalkJob, 8)
	for i := range jobs {
		jobs[i] = nsmodel.WalkJob{
			Seed:     nsmodel.NewReplica([]float64{float64(i)}, float64(i*i) * 0.5),
			Cutoff:   math.Inf(1),
			Stepsize: 0.1,
			SeedRNG:  uint64(i + 1),
		}
	}

	results, err := pool.RunBatch(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		// 20 trials of U(-0.1, 0.1) move a walk less than 2.0 from its seed.
		if d := math.Abs(r.Replica.X[0] - jobs[i].Seed.X[0]); d >= 2.0 {
			t.Errorf("result %d: x=%v is too far from its job's seed %v; order not preserved", i, r.Replica.X[0], jobs[i].Seed.X[0])
		}
		want, _ := h.Energy(r.Replica.X)
		if r.Replica.E != want {
			t.Errorf("result %d: energy mismatch, got %v want %v", i, r.Replica.E, want)
		}
	}
}

func TestLocalPoolBatchFailsOnSingleJobFailure(t *testing.T) {
	goodFactory := func() *walker.Walker {
		return walker.New(potential.NewHarmonic(1, 10), potential.UniformStep{}, nil, nil, 5)
	}
	// A walker factory whose second walker always errors simulates a
	// potential failure in exactly one job among several.
	callCount := 0
	factory := func() *walker.Walker {
		callCount++
		if callCount == 2 {
			return walker.New(alwaysFailPotential{}, potential.UniformStep{}, nil, nil, 5)
		}
		return goodFactory()
	}
	pool := NewLocalPool(1, factory) // serialize to make callCount deterministic

	jobs := []nsmodel.WalkJob{
		{Seed: nsmodel.NewReplica([]float64{0}, 0), Cutoff: math.Inf(1), Stepsize: 0.1, SeedRNG: 1},
		{Seed: nsmodel.NewReplica([]float64{0}, 0), Cutoff: math.Inf(1), Stepsize: 0.1, SeedRNG: 2},
		{Seed: nsmodel.NewReplica([]float64{0}, 0), Cutoff: math.Inf(1), Stepsize: 0.1, SeedRNG: 3},
	}

	_, err := pool.RunBatch(context.Background(), jobs)
	if err == nil {
		t.Fatal("expected batch to fail when one job fails")
	}
}

type alwaysFailPotential struct{}

func (alwaysFailPotential) Energy(x []float64) (float64, error) {
	return 0, errors.New("simulated potential failure")
}
func (alwaysFailPotential) RandomConfiguration(rng *potential.Rand) []float64 { return []float64{0} }
func (alwaysFailPotential) Ndof() int                                        { return 1 }
