// Package trace implements the nested sampling run's output sinks (spec
// §6): the discarded-energy trace and the final live-set dump, flushed
// after every iteration so a killed run still leaves a usable partial
// trace (spec §7 policy).
package trace

import (
	"bufio"
	"fmt"
	"os"

	"github.com/nsforge/nstool/pkg/errs"
	"github.com/nsforge/nstool/pkg/nsmodel"
)

// EnergyTrace appends one discarded energy per line to a file, flushing
// after every write.
type EnergyTrace struct {
	file   *os.File
	writer *bufio.Writer
}

// OpenEnergyTrace creates (or truncates) the energies file at path.
func OpenEnergyTrace(path string) (*EnergyTrace, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to open energy trace file")
	}
	return &EnergyTrace{file: f, writer: bufio.NewWriter(f)}, nil
}

// WriteDiscarded appends one discarded-energy value and flushes
// immediately (spec §6: `label.energies` grows monotonically as the run
// progresses).
func (t *EnergyTrace) WriteDiscarded(e float64) error {
	if _, err := fmt.Fprintf(t.writer, "%.17g\n", e); err != nil {
		return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to write energy trace row")
	}
	return t.writer.Flush()
}

// Close flushes and closes the underlying file.
func (t *EnergyTrace) Close() error {
	if err := t.writer.Flush(); err != nil {
		return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to flush energy trace")
	}
	return t.file.Close()
}

// WriteReplicasFinal writes one energy per line for the surviving live
// set at termination (spec §6: `label.replicas_final`, sorted ascending
// recommended).
func WriteReplicasFinal(path string, live []nsmodel.Replica) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to open replicas_final file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range live {
		if _, err := fmt.Fprintf(w, "%.17g\n", r.E); err != nil {
			return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to write replicas_final row")
		}
	}
	return w.Flush()
}
