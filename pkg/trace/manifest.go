package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nsforge/nstool/pkg/errs"
)

// HashAlgorithm identifies the hashing algorithm used for run manifests.
const HashAlgorithm = "SHA-256"

// RunConfig is the set of parameters that determine a run's
// reproducibility signature: identical RunConfig plus identical seed
// must always produce an identical energy trace (spec §4.3, invariant 4).
type RunConfig struct {
	PotentialName string            `json:"potential_name"`
	Nreplicas     int               `json:"nreplicas"`
	Ndof          int               `json:"ndof"`
	Nproc         int               `json:"nproc"`
	K             int               `json:"k"`
	Mciter        int               `json:"mciter"`
	Seed          uint64            `json:"seed"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	Parameters    map[string]string `json:"parameters,omitempty"`
}

// Manifest is the computed reproducibility hash and the configuration it
// was derived from.
type Manifest struct {
	Hash       string     `json:"hash"`
	Algorithm  string     `json:"algorithm"`
	ComputedAt time.Time  `json:"computed_at"`
	Config     *RunConfig `json:"config"`
}

// ShortHash returns the first 8 characters of the full hash, suitable
// for a run label.
func (m *Manifest) ShortHash() string {
	if len(m.Hash) >= 8 {
		return m.Hash[:8]
	}
	return m.Hash
}

// Verify recomputes the hash and checks it against the stored one.
func (m *Manifest) Verify() bool {
	if m.Config == nil {
		return false
	}
	return computeHash(m.Config) == m.Hash
}

// ToJSON renders the manifest as indented JSON.
func (m *Manifest) ToJSON() (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to marshal manifest")
	}
	return string(data), nil
}

// BuildManifest computes a reproducibility manifest from a RunConfig.
func BuildManifest(cfg RunConfig) *Manifest {
	return &Manifest{
		Hash:       computeHash(&cfg),
		Algorithm:  HashAlgorithm,
		ComputedAt: cfg.StartTime,
		Config:     &cfg,
	}
}

// computeHash builds a canonical string representation of cfg, in a
// fixed field order, and returns its hex-encoded SHA-256 digest.
func computeHash(cfg *RunConfig) string {
	var sb strings.Builder

	sb.WriteString("potential:")
	sb.WriteString(cfg.PotentialName)
	sb.WriteString("|")

	sb.WriteString("nreplicas:")
	sb.WriteString(fmt.Sprintf("%d", cfg.Nreplicas))
	sb.WriteString("|")

	sb.WriteString("ndof:")
	sb.WriteString(fmt.Sprintf("%d", cfg.Ndof))
	sb.WriteString("|")

	sb.WriteString("nproc:")
	sb.WriteString(fmt.Sprintf("%d", cfg.Nproc))
	sb.WriteString("|")

	sb.WriteString("k:")
	sb.WriteString(fmt.Sprintf("%d", cfg.K))
	sb.WriteString("|")

	sb.WriteString("mciter:")
	sb.WriteString(fmt.Sprintf("%d", cfg.Mciter))
	sb.WriteString("|")

	sb.WriteString("seed:")
	sb.WriteString(fmt.Sprintf("%d", cfg.Seed))
	sb.WriteString("|")

	if len(cfg.Parameters) > 0 {
		sb.WriteString("params:")
		keys := make([]string, 0, len(cfg.Parameters))
		for k := range cfg.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(cfg.Parameters[k])
		}
		sb.WriteString("|")
	}

	hasher := sha256.New()
	hasher.Write([]byte(sb.String()))
	return hex.EncodeToString(hasher.Sum(nil))
}
