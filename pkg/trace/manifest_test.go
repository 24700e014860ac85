package trace

import (
	"testing"
	"time"
)

func sampleConfig() RunConfig {
	return RunConfig{
		PotentialName: "harmonic",
		Nreplicas:     100,
		Ndof:          1,
		Nproc:         4,
		K:             4,
		Mciter:        200,
		Seed:          42,
		StartTime:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildManifestIsDeterministic(t *testing.T) {
	m1 := BuildManifest(sampleConfig())
	m2 := BuildManifest(sampleConfig())
	if m1.Hash != m2.Hash {
		t.Fatalf("expected identical hashes for identical config, got %q vs %q", m1.Hash, m2.Hash)
	}
}

func TestBuildManifestDiffersOnSeed(t *testing.T) {
	cfg1 := sampleConfig()
	cfg2 := sampleConfig()
	cfg2.Seed = 43

	m1 := BuildManifest(cfg1)
	m2 := BuildManifest(cfg2)
	if m1.Hash == m2.Hash {
		t.Fatal("expected different hashes for different seeds")
	}
}

func TestManifestVerify(t *testing.T) {
	m := BuildManifest(sampleConfig())
	if !m.Verify() {
		t.Fatal("expected manifest to verify against its own config")
	}
	m.Hash = "deadbeef"
	if m.Verify() {
		t.Fatal("expected tampered hash to fail verification")
	}
}

func TestManifestShortHash(t *testing.T) {
	m := BuildManifest(sampleConfig())
	if len(m.ShortHash()) != 8 {
		t.Fatalf("expected short hash of length 8, got %d", len(m.ShortHash()))
	}
}
