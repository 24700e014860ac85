package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithConfigForcesNonTTY(t *testing.T) {
	var buf bytes.Buffer
	notTTY := false
	cfg := Config{MaxIter: 500, Message: "nested sampling", Width: 10, Writer: &buf, IsTTY: &notTTY}

	b := NewWithConfig(cfg)
	if b.isTTY {
		t.Fatal("expected forced non-TTY mode")
	}
}

func TestStartAndUpdateWritesOutput(t *testing.T) {
	var buf bytes.Buffer
	notTTY := false
	b := NewWithConfig(Config{MaxIter: 100, Message: "run", Writer: &buf, IsTTY: &notTTY})

	b.Start()
	b.Update(10, 1.25, 0.5)

	out := buf.String()
	if !strings.Contains(out, "run") {
		t.Fatalf("expected output to include message, got %q", out)
	}
	if !strings.Contains(out, "iter 10/100") {
		t.Fatalf("expected output to include iteration count, got %q", out)
	}
}

func TestCompleteStopsBar(t *testing.T) {
	var buf bytes.Buffer
	notTTY := false
	b := NewWithConfig(Config{MaxIter: 50, Writer: &buf, IsTTY: &notTTY})

	b.Start()
	b.Complete("done")

	if b.active {
		t.Fatal("expected bar to be inactive after Complete")
	}
	if !strings.Contains(buf.String(), "done") {
		t.Fatalf("expected completion message in output, got %q", buf.String())
	}
}

func TestUpdateNoopWhenNotStarted(t *testing.T) {
	var buf bytes.Buffer
	notTTY := false
	b := NewWithConfig(Config{Writer: &buf, IsTTY: &notTTY})

	b.Update(5, 1.0, 0.5)
	if buf.Len() != 0 {
		t.Fatalf("expected no output before Start, got %q", buf.String())
	}
}

func TestUnboundedMaxIterOmitsTotal(t *testing.T) {
	var buf bytes.Buffer
	notTTY := false
	b := NewWithConfig(Config{MaxIter: 0, Writer: &buf, IsTTY: &notTTY})

	b.Start()
	b.Update(10, 0.5, 0.4)

	out := buf.String()
	if !strings.Contains(out, "iter 10") {
		t.Fatalf("expected iteration count without total, got %q", out)
	}
	if strings.Contains(out, "iter 10/") {
		t.Fatalf("expected no total shown for unbounded max_iter, got %q", out)
	}
}
