// Package report renders conflict reports for human consumption. It is
// presentation only: detection lives in internal/detect and the two are
// testable independently.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"calclash/internal/detect"
)

const timeLayout = "2006-01-02 15:04"

// Render writes one conflict block:
//
//	[CONFLICT]
//	  2025-03-03 09:00 - 2025-03-03 09:30: Morning standup
//	  2025-03-03 09:15 - 2025-03-03 09:30: Morning breathing exercises
//	--------
func Render(w io.Writer, r detect.Report) error {
	var b strings.Builder
	b.WriteString("[CONFLICT]\n")
	for _, ev := range r.Events {
		fmt.Fprintf(&b, "  %s - %s: %s\n",
			ev.Start.Format(timeLayout),
			ev.End.Format(timeLayout),
			ev.Label)
	}
	b.WriteString("--------\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Printer is a detect.Sink that renders every report to a writer as it
// is emitted. Safe for use from the detector goroutine while the caller
// owns the writer elsewhere.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter creates a printer over w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Sink renders r. Write errors are dropped; detection never aborts on
// output failure.
func (p *Printer) Sink(r detect.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = Render(p.w, r)
}
