package trace

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nsforge/nstool/pkg/errs"
)

// CSVRow is one row of structured iteration output: the numbers spec §6
// already requires the engine to track, serialized for downstream
// analysis tooling (not analysis itself — heat capacities and evidence
// integrals remain out of scope).
type CSVRow struct {
	Iteration  int
	Ecut       float64
	Stepsize   float64
	AcceptRate float64
	EMinLive   float64
	EMaxLive   float64
}

// CSVConfig controls the structured-trace CSV writer.
type CSVConfig struct {
	IncludeHeader bool
	Precision     int
}

// DefaultCSVConfig returns a CSVConfig with sensible defaults.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{IncludeHeader: true, Precision: 6}
}

// CSVWriter writes CSVRows to an io.Writer.
type CSVWriter struct {
	config     *CSVConfig
	writer     *csv.Writer
	headerDone bool
}

// NewCSVWriter constructs a CSVWriter. If config is nil,
// DefaultCSVConfig() is used.
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}
	return &CSVWriter{config: config, writer: csv.NewWriter(w)}
}

// Write writes one row, emitting the header first if configured to and
// not already done.
func (cw *CSVWriter) Write(row CSVRow) error {
	if cw.config.IncludeHeader && !cw.headerDone {
		if err := cw.writer.Write([]string{"iteration", "e_cut", "stepsize", "accept_rate", "e_min_live", "e_max_live"}); err != nil {
			return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to write CSV header")
		}
		cw.headerDone = true
	}

	p := cw.config.Precision
	record := []string{
		strconv.Itoa(row.Iteration),
		strconv.FormatFloat(row.Ecut, 'f', p, 64),
		strconv.FormatFloat(row.Stepsize, 'f', p, 64),
		strconv.FormatFloat(row.AcceptRate, 'f', p, 64),
		strconv.FormatFloat(row.EMinLive, 'f', p, 64),
		strconv.FormatFloat(row.EMaxLive, 'f', p, 64),
	}
	if err := cw.writer.Write(record); err != nil {
		return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to write CSV row")
	}
	return nil
}

// Flush flushes any buffered rows to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to flush CSV writer")
	}
	return nil
}

// WriteAll writes and flushes every row in rows.
func WriteAll(w io.Writer, rows []CSVRow, config *CSVConfig) error {
	cw := NewCSVWriter(w, config)
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Flush()
}
