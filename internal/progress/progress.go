// Package progress renders desk movement for a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"
)

// Printer writes one line per reported height change. It satisfies
// desk.ProgressSink.
type Printer struct {
	w io.Writer

	mu      sync.Mutex
	last    string
	covered int // tenth-mm
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Progress records covered distance and prints message if it changed.
func (p *Printer) Progress(covered int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.covered += covered
	if message == p.last {
		return
	}
	p.last = message
	fmt.Fprintf(p.w, "  %s (moved %.1f cm)\n", message, float64(p.covered)/100)
}

// Covered returns the total distance reported so far, in tenth-millimetres.
func (p *Printer) Covered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.covered
}
