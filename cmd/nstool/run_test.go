package main

import (
	"testing"

	"github.com/nsforge/nstool/pkg/engine"
)

func TestExitCodeForStatus(t *testing.T) {
	cases := []struct {
		status engine.Status
		want   int
	}{
		{engine.StatusOK, 0},
		{engine.StatusWalkerFatal, 2},
		{engine.StatusDispatchFatal, 3},
		{engine.StatusTimeout, 4},
		{engine.StatusCancelled, 0},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := exitCodeForStatus(tc.status); got != tc.want {
				t.Fatalf("exitCodeForStatus(%s) = %d, want %d", tc.status, got, tc.want)
			}
		})
	}
}

func TestBuildPotentialRejectsUnknownName(t *testing.T) {
	if _, err := buildPotential("not-a-real-potential", 1, 10); err == nil {
		t.Fatal("expected error for unknown potential name")
	}
}
