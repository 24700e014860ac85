package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nsforge/nstool/pkg/nsmodel"
)

func TestEnergyTraceWritesAndFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.energies")
	tr, err := OpenEnergyTrace(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range []float64{0.1, 0.2, 0.5} {
		if err := tr.WriteDiscarded(e); err != nil {
			t.Fatalf("unexpected write error: %v", err)
		}
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestWriteReplicasFinal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.replicas_final")
	live := []nsmodel.Replica{
		nsmodel.NewReplica([]float64{0}, 0.1),
		nsmodel.NewReplica([]float64{1}, 0.3),
	}
	if err := WriteReplicasFinal(path, live); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}
