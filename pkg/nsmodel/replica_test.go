package nsmodel

import "testing"

func TestReplicaClone(t *testing.T) {
	r := NewReplica([]float64{1, 2, 3}, 0.5)
	c := r.Clone()

	c.X[0] = 99
	if r.X[0] == 99 {
		t.Fatal("expected Clone to produce an independent copy of X")
	}
	if c.E != r.E {
		t.Fatalf("expected cloned energy %v, got %v", r.E, c.E)
	}
}

func TestReplicaNdof(t *testing.T) {
	r := NewReplica([]float64{1, 2, 3, 4}, 0)
	if r.Ndof() != 4 {
		t.Fatalf("expected Ndof 4, got %d", r.Ndof())
	}
}

func TestAdaptiveStateAcceptRatio(t *testing.T) {
	a := AdaptiveState{AcceptTotal: 30, TrialTotal: 100}
	if got := a.AcceptRatio(); got != 0.3 {
		t.Fatalf("expected ratio 0.3, got %v", got)
	}

	empty := AdaptiveState{}
	if got := empty.AcceptRatio(); got != 0 {
		t.Fatalf("expected ratio 0 for no trials, got %v", got)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		v, min, max, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{20, 0, 10, 10},
		{5, 0, 0, 0},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.min, c.max); got != c.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", c.v, c.min, c.max, got, c.want)
		}
	}
}

func TestWalkResultTrialTotal(t *testing.T) {
	r := WalkResult{NAccept: 12, NReject: 8}
	if got := r.TrialTotal(); got != 20 {
		t.Fatalf("expected 20, got %d", got)
	}
}
