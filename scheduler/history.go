package scheduler

import (
	"sync"

	"github.com/github-devtools-2022/ghas-to-csv/pipeline"
)

// History keeps a bounded record of recent runs, newest first.
type History struct {
	mu   sync.RWMutex
	max  int
	runs []*pipeline.Run
}

// NewHistory creates a History retaining at most max runs.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Add records a finished run, evicting the oldest beyond the cap.
// Nil runs (skipped firings) are ignored.
func (h *History) Add(run *pipeline.Run) {
	if run == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs = append([]*pipeline.Run{run}, h.runs...)
	if len(h.runs) > h.max {
		h.runs = h.runs[:h.max]
	}
}

// Runs returns the retained runs, newest first.
func (h *History) Runs() []*pipeline.Run {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*pipeline.Run, len(h.runs))
	copy(out, h.runs)
	return out
}

// Last returns the most recent run, or nil when nothing has run yet.
func (h *History) Last() *pipeline.Run {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.runs) == 0 {
		return nil
	}
	return h.runs[0]
}

// Len returns the number of retained runs.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs)
}
