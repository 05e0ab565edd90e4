// Package automation is the inbound command surface. A Controller owns the
// page-side collaborators (scanner, runner) and accepts the four commands a
// caller can issue; the background transfer queue, run state, and event hub
// are injected and outlive any single run.
package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/filter"
	"github.com/mkravets/resume-exporter/internal/locator"
	"github.com/mkravets/resume-exporter/internal/logging"
	"github.com/mkravets/resume-exporter/internal/navigation"
	"github.com/mkravets/resume-exporter/internal/orchestrator"
	"github.com/mkravets/resume-exporter/internal/state"
)

// ErrAlreadyRunning is returned by StartDownload while a run is in flight.
var ErrAlreadyRunning = errors.New("a download run is already in progress")

// ErrNoCandidates is returned when a scan finds nothing to download.
var ErrNoCandidates = errors.New("no candidates found on the current page")

type Controller struct {
	scanner *locator.Scanner
	runner  *orchestrator.Runner
	run     *state.Run
	tabCtx  context.Context
	log     zerolog.Logger

	// primer is optional; when set, the list is scrolled before a scan so
	// virtualized rows exist in the DOM.
	primer navigation.Evaluator
	// nameFilter is optional; when enabled it narrows scan results.
	nameFilter *filter.NameFilter
	// limit caps how many candidates a scan keeps; zero means no cap.
	limit int

	mu      sync.Mutex
	running bool
	scanned []locator.Candidate
	done    chan struct{} // closed when the active run finishes
}

func NewController(tabCtx context.Context, scanner *locator.Scanner, runner *orchestrator.Runner,
	run *state.Run) *Controller {
	return &Controller{
		scanner: scanner,
		runner:  runner,
		run:     run,
		tabCtx:  tabCtx,
		log:     logging.Get("automation"),
	}
}

// SetPrimer enables pre-scan list scrolling through ev.
func (c *Controller) SetPrimer(ev navigation.Evaluator) {
	c.primer = ev
}

// SetNameFilter narrows scan results to matching candidate names.
func (c *Controller) SetNameFilter(f *filter.NameFilter) {
	c.nameFilter = f
}

// SetLimit caps how many candidates a scan keeps.
func (c *Controller) SetLimit(n int) {
	c.limit = n
}

// ScanCandidates discovers applicant rows on the current page and caches
// them for a subsequent StartDownload.
func (c *Controller) ScanCandidates() (int, error) {
	if c.primer != nil {
		// Best effort: an unscrollable page still gets scanned.
		if err := navigation.PrimeList(c.tabCtx, c.primer); err != nil {
			c.log.Warn().Err(err).Msg("list priming failed")
		}
	}
	cands, err := c.scanner.Discover(c.tabCtx)
	if err != nil {
		return 0, fmt.Errorf("scanning candidates: %w", err)
	}
	if c.nameFilter != nil && c.nameFilter.Enabled {
		kept := cands[:0]
		for _, cand := range cands {
			if c.nameFilter.Matches(cand.Name) {
				kept = append(kept, cand)
			}
		}
		c.log.Info().Int("before", len(cands)).Int("after", len(kept)).
			Str("filter", c.nameFilter.Description()).Msg("name filter applied")
		cands = kept
	}
	if c.limit > 0 && len(cands) > c.limit {
		cands = cands[:c.limit]
	}
	c.mu.Lock()
	c.scanned = cands
	c.mu.Unlock()
	c.log.Info().Int("count", len(cands)).Msg("scan complete")
	return len(cands), nil
}

// DebugScan runs every discovery strategy without short-circuiting and
// returns the per-strategy report.
func (c *Controller) DebugScan() (*locator.ScanReport, error) {
	return c.scanner.DebugScan(c.tabCtx)
}

// StartDownload kicks off a background run over the scanned candidates,
// scanning first if no scan has happened yet. It returns ErrAlreadyRunning
// while a previous run is still in flight.
func (c *Controller) StartDownload() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.done = make(chan struct{})
	cands := c.scanned
	c.mu.Unlock()

	if len(cands) == 0 {
		n, err := c.ScanCandidates()
		if err != nil {
			c.finishRun()
			return err
		}
		if n == 0 {
			c.finishRun()
			return ErrNoCandidates
		}
		c.mu.Lock()
		cands = c.scanned
		c.mu.Unlock()
	}

	go func() {
		defer c.finishRun()
		c.runner.Run(c.tabCtx, cands)
	}()
	return nil
}

func (c *Controller) finishRun() {
	c.mu.Lock()
	c.running = false
	done := c.done
	c.done = nil
	c.mu.Unlock()
	if done != nil {
		close(done)
	}
}

// StopDownload requests a cooperative stop; the candidate in flight
// completes first. A stop with no active run is a no-op.
func (c *Controller) StopDownload() {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		return
	}
	c.runner.RequestStop()
}

// Wait blocks until the active run (if any) finishes.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Snapshot exposes progress for displays that attach mid-run.
func (c *Controller) Snapshot() state.Snapshot {
	return c.run.Snapshot()
}
