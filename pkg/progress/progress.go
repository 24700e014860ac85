// Package progress reports nested sampling iteration progress to a
// terminal, falling back to periodic plain-text status lines when the
// output is not a TTY.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// ANSI escape sequences for terminal control.
const (
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	carriageReturn = "\r"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"

	barFilled = "█"
	barEmpty  = "░"
)

// Config holds configuration for an iteration progress bar.
type Config struct {
	// MaxIter is the configured iteration budget. 0 means unbounded — the
	// bar is then drawn empty and the iteration count has no total.
	MaxIter int

	// Message is the text displayed next to the bar, e.g. "nested sampling".
	Message string

	// Width is the bar width in characters. Defaults to 20.
	Width int

	Writer io.Writer

	// IsTTY overrides TTY auto-detection; nil means auto-detect from Writer.
	IsTTY *bool
}

// DefaultConfig returns sensible defaults, writing to stderr.
func DefaultConfig() Config {
	return Config{
		Message: "nested sampling",
		Width:   20,
		Writer:  os.Stderr,
	}
}

// Bar reports nested sampling iteration progress: current iteration,
// current E_cut, and acceptance ratio.
type Bar struct {
	mu sync.Mutex

	config     Config
	iteration  int
	ecut       float64
	acceptRate float64

	startTime time.Time
	active    bool
	isTTY     bool

	lastOutput int
}

// New creates a Bar with the given max iteration budget (0 = unbounded)
// and message.
func New(maxIter int, message string) *Bar {
	cfg := DefaultConfig()
	cfg.MaxIter = maxIter
	cfg.Message = message
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Bar with custom configuration.
func NewWithConfig(config Config) *Bar {
	if config.Width <= 0 {
		config.Width = 20
	}
	if config.Writer == nil {
		config.Writer = os.Stderr
	}

	isTTY := isTerminalWriter(config.Writer)
	if config.IsTTY != nil {
		isTTY = *config.IsTTY
	}

	return &Bar{config: config, isTTY: isTTY}
}

// Start begins progress tracking and renders the initial state.
func (b *Bar) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return
	}
	b.active = true
	b.startTime = time.Now()
	b.iteration = 0

	if b.isTTY {
		fmt.Fprint(b.config.Writer, hideCursor)
		b.clearAndWrite(b.buildOutput())
	} else {
		fmt.Fprintln(b.config.Writer, b.buildOutput())
	}
}

// Update reports one completed iteration's state (spec §4.3 step 8's
// per-iteration bookkeeping).
func (b *Bar) Update(iteration int, ecut, acceptRate float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}
	b.iteration = iteration
	b.ecut = ecut
	b.acceptRate = acceptRate

	if b.isTTY {
		b.clearAndWrite(b.buildOutput())
		return
	}
	// Non-TTY: emit one line every 10 iterations to avoid log spam.
	if iteration%10 == 0 {
		fmt.Fprintln(b.config.Writer, b.buildOutput())
	}
}

// Complete stops the bar and prints a success status line.
func (b *Bar) Complete(message string) {
	b.finish(message, symbolSuccess, colorGreen)
}

// Fail stops the bar and prints a failure status line.
func (b *Bar) Fail(message string) {
	b.finish(message, symbolFailure, colorRed)
}

func (b *Bar) finish(message, symbol, color string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if message == "" {
		message = fmt.Sprintf("%s complete", b.config.Message)
	}

	var elapsed time.Duration
	if !b.startTime.IsZero() {
		elapsed = time.Since(b.startTime)
	}

	if b.isTTY {
		if b.lastOutput > 0 {
			fmt.Fprint(b.config.Writer, carriageReturn+strings.Repeat(" ", b.lastOutput)+carriageReturn)
			b.lastOutput = 0
		}
		fmt.Fprint(b.config.Writer, showCursor)
		fmt.Fprintf(b.config.Writer, "%s%s%s %s (%s)\n", color, symbol, colorReset, message, elapsed.Round(time.Millisecond))
	} else {
		fmt.Fprintf(b.config.Writer, "%s %s (%s)\n", symbol, message, elapsed.Round(time.Millisecond))
	}
	b.active = false
}

func (b *Bar) buildOutput() string {
	var parts []string
	if b.config.Message != "" {
		parts = append(parts, b.config.Message)
	}
	parts = append(parts, b.buildBar())
	parts = append(parts, fmt.Sprintf("iter %d", b.iteration))
	if b.config.MaxIter > 0 {
		parts[len(parts)-1] = fmt.Sprintf("iter %d/%d", b.iteration, b.config.MaxIter)
	}
	parts = append(parts, fmt.Sprintf("E_cut=%.4g", b.ecut))
	parts = append(parts, fmt.Sprintf("acc=%.2f", b.acceptRate))
	return strings.Join(parts, " ")
}

func (b *Bar) buildBar() string {
	width := b.config.Width
	filled := 0
	if b.config.MaxIter > 0 {
		filled = (b.iteration * width) / b.config.MaxIter
		if filled > width {
			filled = width
		}
	}
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < filled; i++ {
		sb.WriteString(barFilled)
	}
	for i := filled; i < width; i++ {
		sb.WriteString(barEmpty)
	}
	sb.WriteString("]")
	return sb.String()
}

func (b *Bar) clearAndWrite(output string) {
	if b.lastOutput > 0 {
		fmt.Fprint(b.config.Writer, carriageReturn+strings.Repeat(" ", b.lastOutput)+carriageReturn)
	}
	fmt.Fprint(b.config.Writer, output)
	b.lastOutput = len(output)
}

func isTerminalWriter(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
