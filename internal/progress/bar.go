// Package progress renders the terminal progress bar shown during a run.
package progress

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

const template = `{{string . "prefix"}}{{counters . }} {{bar . "[" "█" "█" "░" "]"}} {{percent . }} {{etime . "Elapsed: %s"}} {{rtime . "ETA: %s"}} {{string . "file"}}`

// Bar represents a file counter with ETA
type Bar struct {
	mu   sync.Mutex
	bar  *pb.ProgressBar
	done bool
}

// New creates a progress bar on stdout
func New(total int, label string) *Bar {
	return NewWithWriter(os.Stdout, total, label)
}

// NewWithWriter creates a progress bar rendering to w
func NewWithWriter(w io.Writer, total int, label string) *Bar {
	bar := pb.ProgressBarTemplate(template).New(total).
		SetWriter(w).
		SetRefreshRate(500 * time.Millisecond)
	if label != "" {
		bar.Set("prefix", label+" ")
	}
	bar.Start()
	return &Bar{bar: bar}
}

// Increment advances the bar by one and shows the file just finished
func (b *Bar) Increment(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	if path != "" {
		b.bar.Set("file", filepath.Base(path))
	}
	b.bar.Increment()
}

// Current returns the number of completed steps
func (b *Bar) Current() int {
	return int(b.bar.Current())
}

// Finish stops rendering. Safe to call more than once.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.done {
		b.bar.Set("file", "")
		b.bar.Finish()
		b.done = true
	}
}
