// Package state holds the progress of a bulk download run. It lives in the
// long-lived side of the process so a display surface that reconnects can
// reconstruct progress from a snapshot instead of replaying events.
package state

import (
	"sync"
)

// LogCapacity bounds the retained log lines; older lines are dropped.
const LogCapacity = 50

// Snapshot is an immutable copy of the run state.
type Snapshot struct {
	Running           bool
	Downloaded        int
	Total             int
	Failed            int
	LastCandidateName string
	LogLines          []string
}

// Run is the mutable run state. All mutation comes from the orchestrator's
// single logical thread; the mutex only guards against concurrent snapshot
// reads from a display surface.
type Run struct {
	mu sync.Mutex

	running    bool
	downloaded int
	total      int
	failed     int
	lastName   string

	// log ring: next is the write position, filled counts valid entries.
	lines  [LogCapacity]string
	next   int
	filled int
}

func NewRun() *Run {
	return &Run{}
}

// Reset clears everything and marks the run active with the given total.
func (r *Run) Reset(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	r.downloaded = 0
	r.failed = 0
	r.total = total
	r.lastName = ""
	r.next = 0
	r.filled = 0
}

// Finish marks the run inactive.
func (r *Run) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

// RecordSuccess notes one completed candidate.
func (r *Run) RecordSuccess(candidateName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloaded++
	r.lastName = candidateName
}

// RecordFailure notes one failed candidate.
func (r *Run) RecordFailure(candidateName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
	r.lastName = candidateName
}

// AppendLog pushes a line into the bounded ring.
func (r *Run) AppendLog(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % LogCapacity
	if r.filled < LogCapacity {
		r.filled++
	}
}

// Snapshot copies the current state, log lines oldest first.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, 0, r.filled)
	start := r.next - r.filled
	if start < 0 {
		start += LogCapacity
	}
	for i := 0; i < r.filled; i++ {
		lines = append(lines, r.lines[(start+i)%LogCapacity])
	}
	return Snapshot{
		Running:           r.running,
		Downloaded:        r.downloaded,
		Total:             r.total,
		Failed:            r.failed,
		LastCandidateName: r.lastName,
		LogLines:          lines,
	}
}
