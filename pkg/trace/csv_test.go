package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestCSVWriterIncludesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCSVWriter(&buf, nil)

	rows := []CSVRow{
		{Iteration: 1, Ecut: 1.5, Stepsize: 0.1, AcceptRate: 0.5, EMinLive: 0.01, EMaxLive: 2.0},
		{Iteration: 2, Ecut: 1.4, Stepsize: 0.11, AcceptRate: 0.48, EMinLive: 0.01, EMaxLive: 1.9},
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := cw.Flush(); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows = 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "iteration,e_cut") {
		t.Fatalf("expected header row first, got %q", lines[0])
	}
}

func TestWriteAllWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	cfg := &CSVConfig{IncludeHeader: false, Precision: 3}
	if err := WriteAll(&buf, []CSVRow{{Iteration: 1, Ecut: 1.0}}, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 row with no header, got %d", len(lines))
	}
}
