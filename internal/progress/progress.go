// Package progress reports sweep progress on a terminal.
//
// In TTY environments the reporter rewrites a single status line as
// the sweep advances; in non-TTY environments (CI, redirected output)
// each step prints once on its own line.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check whether a file
// descriptor is a terminal. Overridable for testing.
var IsTerminalFunc = term.IsTerminal

// Reporter tracks completion of a fixed number of steps.
type Reporter struct {
	output io.Writer
	total  int
	done   int
	isTTY  bool
}

// NewReporter creates a reporter for total steps writing to output.
// If output is nil, os.Stderr is used.
func NewReporter(output io.Writer, total int) *Reporter {
	if output == nil {
		output = os.Stderr
	}
	isTTY := false
	if f, ok := output.(*os.File); ok {
		isTTY = IsTerminalFunc(int(f.Fd()))
	}
	return &Reporter{output: output, total: total, isTTY: isTTY}
}

// Step records one completed step and displays its label.
func (r *Reporter) Step(label string) {
	r.done++
	line := fmt.Sprintf("[%d/%d] %s", r.done, r.total, label)
	if r.isTTY {
		fmt.Fprintf(r.output, "\r%-80s", line)
		return
	}
	fmt.Fprintln(r.output, line)
}

// Finish clears the in-place status line. A no-op off-TTY.
func (r *Reporter) Finish() {
	if r.isTTY {
		fmt.Fprintf(r.output, "\r%s\r", strings.Repeat(" ", 80))
	}
}
