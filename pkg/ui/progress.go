package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	progressWidth = 20
)

// StatusTracker renders the progress of the per-follower detail lookups on
// a single terminal line. Update is safe for concurrent use.
type StatusTracker struct {
	mu        sync.Mutex
	printer   *Printer
	label     string
	done      int
	total     int
	startTime time.Time
	now       func() time.Time
}

// NewStatusTracker creates a tracker printing on p
func NewStatusTracker(p *Printer, label string) *StatusTracker {
	return &StatusTracker{
		printer:   p,
		label:     label,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Update records progress and redraws the line; the final update ends it
// with a newline
func (st *StatusTracker) Update(done, total int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if done < st.done {
		return
	}
	st.done, st.total = done, total
	if st.printer.quiet {
		return
	}

	fmt.Fprintf(st.printer.out, "\r%s %s %s",
		st.printer.paint(Magenta, "["+st.label+"]"),
		st.bar(),
		st.printer.paint(Dim, fmt.Sprintf("%.1f/min", st.rate())))
	if done >= total {
		fmt.Fprintln(st.printer.out)
	}
}

func (st *StatusTracker) bar() string {
	filled := 0
	if st.total > 0 {
		filled = st.done * progressWidth / st.total
	}
	filled = min(filled, progressWidth)
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, progressWidth-filled),
		st.done, st.total)
}

// rate returns completed items per minute
func (st *StatusTracker) rate() float64 {
	elapsed := st.now().Sub(st.startTime).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return float64(st.done) / elapsed
}

// Done returns the number of completed items
func (st *StatusTracker) Done() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.done
}
