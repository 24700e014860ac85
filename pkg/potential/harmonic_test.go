package potential

import (
	"math"
	"testing"
)

func TestHarmonicEnergy(t *testing.T) {
	h := NewHarmonic(2, 10)
	e, err := h.Energy([]float64{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 0.5 * 25.0; e != want {
		t.Fatalf("expected energy %v, got %v", want, e)
	}
}

func TestHarmonicRandomConfigurationWithinBall(t *testing.T) {
	h := NewHarmonic(3, 5)
	rng := NewRand(1)
	for i := 0; i < 100; i++ {
		x := h.RandomConfiguration(rng)
		if len(x) != 3 {
			t.Fatalf("expected 3 coordinates, got %d", len(x))
		}
		norm2 := 0.0
		for _, xi := range x {
			norm2 += xi * xi
		}
		if norm2 > 5*5+1e-9 {
			t.Fatalf("sample outside ball: norm^2=%v", norm2)
		}
	}
}

func TestUniformStepSymmetricRange(t *testing.T) {
	rng := NewRand(42)
	step := UniformStep{}
	x := []float64{0, 0}
	for i := 0; i < 1000; i++ {
		xp := step.Step(x, 0.5, rng)
		for _, v := range xp {
			if v < -0.5 || v >= 0.5 {
				t.Fatalf("proposal %v outside [-0.5, 0.5)", v)
			}
		}
	}
}

func TestBoxConstraintAccept(t *testing.T) {
	b := BoxConstraint{Bound: 1}
	if !b.Accept([]float64{0.5, -0.9}) {
		t.Error("expected point inside box to be accepted")
	}
	if b.Accept([]float64{1.0, 0}) {
		t.Error("expected point on boundary to be rejected (strict inequality)")
	}
	if b.Accept([]float64{0.1, 1.5}) {
		t.Error("expected out-of-box point to be rejected")
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(1.5) {
		t.Error("expected 1.5 to be finite")
	}
	if IsFinite(math.NaN()) {
		t.Error("expected NaN to be non-finite")
	}
}
