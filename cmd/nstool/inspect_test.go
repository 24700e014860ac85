package main

import (
	"testing"

	"github.com/nsforge/nstool/pkg/config"
)

func newTestInspector() *inspector {
	return &inspector{cfg: config.Default(), potential: "harmonic", radius: 10, label: "ns-run"}
}

func TestHandleSetUpdatesRunConfig(t *testing.T) {
	insp := newTestInspector()

	cases := map[string]struct {
		key   string
		value string
		check func(t *testing.T)
	}{
		"nreplicas": {"nreplicas", "250", func(t *testing.T) {
			if insp.cfg.Run.Nreplicas != 250 {
				t.Fatalf("expected nreplicas=250, got %d", insp.cfg.Run.Nreplicas)
			}
		}},
		"stepsize": {"stepsize", "0.25", func(t *testing.T) {
			if insp.cfg.Run.Stepsize != 0.25 {
				t.Fatalf("expected stepsize=0.25, got %g", insp.cfg.Run.Stepsize)
			}
		}},
		"seed": {"seed", "42", func(t *testing.T) {
			if insp.cfg.Run.Seed != 42 {
				t.Fatalf("expected seed=42, got %d", insp.cfg.Run.Seed)
			}
		}},
		"potential": {"potential", "harmonic", func(t *testing.T) {
			if insp.potential != "harmonic" {
				t.Fatalf("expected potential=harmonic, got %q", insp.potential)
			}
		}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if err := insp.handleSet([]string{tc.key, tc.value}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.check(t)
		})
	}
}

func TestHandleSetRejectsUnknownKey(t *testing.T) {
	insp := newTestInspector()
	if err := insp.handleSet([]string{"bogus", "1"}); err == nil {
		t.Fatal("expected error for unknown setting")
	}
}

func TestHandleSetRejectsWrongArgCount(t *testing.T) {
	insp := newTestInspector()
	if err := insp.handleSet([]string{"nreplicas"}); err == nil {
		t.Fatal("expected error for missing value")
	}
}

func TestHandleSetRejectsNonNumeric(t *testing.T) {
	insp := newTestInspector()
	if err := insp.handleSet([]string{"nreplicas", "not-a-number"}); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestPrintStatusWithNoRunDoesNotPanic(t *testing.T) {
	insp := newTestInspector()
	insp.printStatus()
}

func TestHandleQuitCommand(t *testing.T) {
	insp := newTestInspector()
	if err := insp.handle("/quit"); err != errInspectQuit {
		t.Fatalf("expected errInspectQuit, got %v", err)
	}
}
