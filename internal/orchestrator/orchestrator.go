// Package orchestrator drives the serial per-candidate download loop. Each
// candidate walks a small stage machine and a three-rung fallback chain:
// direct in-page transfer of a resolved file URL, then an intercepted
// window.open click, then watching for the file to open in a new tab. A
// candidate failing any stage is recorded and skipped; it never aborts the
// batch.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/events"
	"github.com/mkravets/resume-exporter/internal/filename"
	"github.com/mkravets/resume-exporter/internal/locator"
	"github.com/mkravets/resume-exporter/internal/logging"
	"github.com/mkravets/resume-exporter/internal/state"
	"github.com/mkravets/resume-exporter/internal/tabwatch"
)

// Stage labels a candidate's position in the download sequence.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageSelecting       Stage = "selecting"
	StageAwaitingPreview Stage = "awaiting_preview"
	StageResolvingFile   Stage = "resolving_file"
	StageTransferring    Stage = "transferring"
	StageClosingPreview  Stage = "closing_preview"
	StageDone            Stage = "done"
)

// TabWait is a single-use armed tab listener. Cancel releases it when a
// cheaper rung already won.
type TabWait interface {
	Wait(ctx context.Context, timeout time.Duration) (url string, ok bool)
	Cancel()
}

// Driver is the browser-facing side of one candidate's download. The
// chromedp implementation lives in driver.go; tests substitute a mock.
type Driver interface {
	// SelectCandidate clicks the candidate's row so the console loads
	// their detail pane.
	SelectCandidate(ctx context.Context, c locator.Candidate) error
	// FindPreviewTrigger locates the control that opens the resume
	// preview. ErrNotFound means this candidate has no visible resume.
	FindPreviewTrigger(ctx context.Context) (locator.Control, error)
	OpenPreview(ctx context.Context, ctl locator.Control) error
	FindDownloadTrigger(ctx context.Context) (locator.Control, error)
	// ResolveFileURL inspects the opened preview for a document URL.
	ResolveFileURL(ctx context.Context) (string, bool, error)
	// DirectTransfer fetches the URL with the page's credentials and
	// persists it under fileName.
	DirectTransfer(ctx context.Context, url, fileName string) error
	// ArmTabWatch must be called before the download click so a tab
	// opened by the click cannot be missed.
	ArmTabWatch() TabWait
	// ClickDownloadIntercepted arms the window.open hook, clicks the
	// control, and returns the captured URL if any.
	ClickDownloadIntercepted(ctx context.Context, ctl locator.Control) (string, bool, error)
	// EnqueueTransfer hands a captured URL to the background transfer
	// queue.
	EnqueueTransfer(url, fileName string)
	// ClosePreview dismisses the preview best-effort; failures are logged
	// inside the driver, never surfaced.
	ClosePreview(ctx context.Context)
}

// Config tunes the loop's pacing.
type Config struct {
	// MinDelay and MaxDelay bound the randomized pause between
	// candidates.
	MinDelay time.Duration
	MaxDelay time.Duration
	// SettleDelay is the pause after selecting a row, before probing for
	// the preview trigger.
	SettleDelay time.Duration
	// TabWatchTimeout bounds the last fallback rung.
	TabWatchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinDelay:        2 * time.Second,
		MaxDelay:        5 * time.Second,
		SettleDelay:     1500 * time.Millisecond,
		TabWatchTimeout: tabwatch.DefaultAbandonTimeout,
	}
}

// Runner executes one download batch at a time.
type Runner struct {
	drv  Driver
	run  *state.Run
	hub  *events.Hub
	rng  *rand.Rand
	cfg  Config
	stop atomic.Bool
	log  zerolog.Logger
}

func NewRunner(drv Driver, run *state.Run, hub *events.Hub, rng *rand.Rand, cfg Config) *Runner {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Runner{
		drv: drv,
		run: run,
		hub: hub,
		rng: rng,
		cfg: cfg,
		log: logging.Get("orchestrator"),
	}
}

// RequestStop asks the loop to end after the candidate currently in
// flight. It is checked only between candidates.
func (r *Runner) RequestStop() {
	r.stop.Store(true)
}

// Run processes candidates strictly serially and emits exactly one final
// event: Done on completion, Stopped on a stop request or cancellation.
func (r *Runner) Run(ctx context.Context, candidates []locator.Candidate) state.Snapshot {
	r.stop.Store(false)
	r.run.Reset(len(candidates))
	r.hub.Publish(events.Started{Total: len(candidates)})
	r.logLine(fmt.Sprintf("starting download of %d candidates", len(candidates)))

	stopped := false
	for i, c := range candidates {
		if r.stop.Load() || ctx.Err() != nil {
			stopped = true
			break
		}

		err := r.downloadOne(ctx, c)
		if err != nil {
			r.run.RecordFailure(c.Name)
			r.hub.Publish(events.DownloadError{CandidateName: c.Name, Err: err.Error()})
			r.logLine(fmt.Sprintf("%s: %v", c.Name, err))
			r.log.Warn().Err(err).Str("candidate", c.Name).Msg("candidate failed")
		} else {
			r.run.RecordSuccess(c.Name)
			r.logLine(fmt.Sprintf("%s: saved", c.Name))
		}

		snap := r.run.Snapshot()
		r.hub.Publish(events.Progress{
			Downloaded:    snap.Downloaded,
			Total:         snap.Total,
			Failed:        snap.Failed,
			CandidateName: c.Name,
		})

		if i < len(candidates)-1 {
			if !r.pause(ctx, r.betweenDelay()) {
				stopped = true
				break
			}
		}
	}

	r.run.Finish()
	snap := r.run.Snapshot()
	if stopped {
		r.logLine("run stopped")
		r.hub.Publish(events.Stopped{})
	} else {
		r.logLine(fmt.Sprintf("run complete: %d downloaded, %d failed of %d",
			snap.Downloaded, snap.Failed, snap.Total))
		r.hub.Publish(events.Done{Downloaded: snap.Downloaded, Total: snap.Total, Failed: snap.Failed})
	}
	return snap
}

// downloadOne runs the stage machine for a single candidate. Panics from
// any stage are converted to an error at this boundary.
func (r *Runner) downloadOne(ctx context.Context, c locator.Candidate) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unexpected failure: %v", rec)
		}
	}()

	stage := StageSelecting
	log := r.log.With().Str("candidate", c.Name).Logger()
	log.Debug().Str("stage", string(stage)).Msg("selecting candidate")

	fileName := filename.BuildFileName(c.Name, time.Now())

	if err := r.drv.SelectCandidate(ctx, c); err != nil {
		return fmt.Errorf("selecting candidate: %w", err)
	}
	r.pause(ctx, r.cfg.SettleDelay)

	stage = StageAwaitingPreview
	log.Debug().Str("stage", string(stage)).Msg("looking for preview trigger")
	previewCtl, err := r.drv.FindPreviewTrigger(ctx)
	if err != nil {
		return fmt.Errorf("preview trigger: %w", err)
	}
	if err := r.drv.OpenPreview(ctx, previewCtl); err != nil {
		return fmt.Errorf("opening preview: %w", err)
	}
	defer func() {
		log.Debug().Str("stage", string(StageClosingPreview)).Msg("closing preview")
		r.drv.ClosePreview(ctx)
	}()

	downloadCtl, err := r.drv.FindDownloadTrigger(ctx)
	if err != nil {
		return fmt.Errorf("download trigger: %w", err)
	}

	// Armed before any click so a click that spawns a tab is never missed.
	tab := r.drv.ArmTabWatch()

	// won enforces at most one save per candidate across the fallback
	// rungs, whichever of them produces a URL first.
	var won atomic.Bool

	stage = StageResolvingFile
	log.Debug().Str("stage", string(stage)).Msg("resolving file url")
	if url, ok, rerr := r.drv.ResolveFileURL(ctx); rerr == nil && ok {
		stage = StageTransferring
		if terr := r.drv.DirectTransfer(ctx, url, fileName); terr == nil {
			if won.CompareAndSwap(false, true) {
				tab.Cancel()
				log.Debug().Str("stage", string(StageDone)).Str("via", "direct").Msg("transfer won")
				return nil
			}
		} else {
			log.Debug().Err(terr).Msg("direct transfer failed, falling back")
		}
	}

	stage = StageTransferring
	if url, ok, cerr := r.drv.ClickDownloadIntercepted(ctx, downloadCtl); cerr == nil && ok {
		if won.CompareAndSwap(false, true) {
			tab.Cancel()
			r.drv.EnqueueTransfer(url, fileName)
			log.Debug().Str("stage", string(StageDone)).Str("via", "intercept").Msg("transfer won")
			return nil
		}
	} else if cerr != nil {
		log.Debug().Err(cerr).Msg("intercepted click failed, falling back")
	}

	if url, ok := tab.Wait(ctx, r.cfg.TabWatchTimeout); ok {
		if won.CompareAndSwap(false, true) {
			r.drv.EnqueueTransfer(url, fileName)
			log.Debug().Str("stage", string(StageDone)).Str("via", "tabwatch").Msg("transfer won")
			return nil
		}
	}

	return fmt.Errorf("no transfer path produced a file for %q", c.Name)
}

func (r *Runner) betweenDelay() time.Duration {
	span := r.cfg.MaxDelay - r.cfg.MinDelay
	if span <= 0 {
		return r.cfg.MinDelay
	}
	return r.cfg.MinDelay + time.Duration(r.rng.Int63n(int64(span)))
}

// pause sleeps for d unless ctx ends first; reports whether the full pause
// completed.
func (r *Runner) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *Runner) logLine(line string) {
	r.run.AppendLog(line)
	r.hub.Publish(events.Log{Message: line})
}
