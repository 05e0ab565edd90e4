package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/gesture"
	"github.com/mkravets/resume-exporter/internal/intercept"
	"github.com/mkravets/resume-exporter/internal/locator"
	"github.com/mkravets/resume-exporter/internal/logging"
	"github.com/mkravets/resume-exporter/internal/tabwatch"
	"github.com/mkravets/resume-exporter/internal/transfer"
)

// interceptWindow is how long a click gets to route its URL through the
// window.open hook before the tab-watch rung takes over.
const interceptWindow = 3 * time.Second

const interceptPoll = 250 * time.Millisecond

// dismissTimeout keeps best-effort preview closing snappy.
const dismissTimeout = 3 * time.Second

// BrowserDriver is the chromedp-backed Driver. It composes the locator,
// gesture simulator, intercept hook, tab watcher, and transfer layer over
// one console tab.
type BrowserDriver struct {
	tabCtx context.Context
	ev     locator.Evaluator
	sim    *gesture.Simulator
	hook   *intercept.Hook
	tabs   *tabwatch.Watcher
	queue  *transfer.Queue
	dl     *transfer.HTTPDownloader
	log    zerolog.Logger
}

func NewBrowserDriver(tabCtx context.Context, ev locator.Evaluator, sim *gesture.Simulator,
	hook *intercept.Hook, tabs *tabwatch.Watcher, queue *transfer.Queue, dl *transfer.HTTPDownloader) *BrowserDriver {
	return &BrowserDriver{
		tabCtx: tabCtx,
		ev:     ev,
		sim:    sim,
		hook:   hook,
		tabs:   tabs,
		queue:  queue,
		dl:     dl,
		log:    logging.Get("driver"),
	}
}

const boundsScript = `(function() {
	const el = document.querySelector(%q);
	if (!el) return { found: false, x: 0, y: 0, w: 0, h: 0 };
	const r = el.getBoundingClientRect();
	return { found: true, x: r.left, y: r.top, w: r.width, h: r.height };
})()`

type boundsResult struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

func (d *BrowserDriver) boundsOf(ctx context.Context, selector string) (gesture.Rect, error) {
	var res boundsResult
	if err := d.ev.Eval(ctx, fmt.Sprintf(boundsScript, selector), &res); err != nil {
		return gesture.Rect{}, fmt.Errorf("measuring %q: %w", selector, err)
	}
	if !res.Found || res.W <= 0 || res.H <= 0 {
		return gesture.Rect{}, fmt.Errorf("%w: element %q has no box", locator.ErrNotFound, selector)
	}
	return gesture.Rect{X: res.X, Y: res.Y, W: res.W, H: res.H}, nil
}

func (d *BrowserDriver) SelectCandidate(ctx context.Context, c locator.Candidate) error {
	bounds, err := d.boundsOf(ctx, c.Selector)
	if err != nil {
		return err
	}
	return d.sim.Click(ctx, c.Selector, bounds)
}

func (d *BrowserDriver) FindPreviewTrigger(ctx context.Context) (locator.Control, error) {
	ctl, err := locator.FindControl(ctx, d.ev, locator.PreviewTriggerSpec(),
		locator.DefaultControlTimeout, locator.DefaultPollInterval)
	if err != nil {
		return locator.Control{}, err
	}
	return *ctl, nil
}

func (d *BrowserDriver) OpenPreview(ctx context.Context, ctl locator.Control) error {
	return d.sim.Click(ctx, ctl.Selector, gesture.Rect{X: ctl.X, Y: ctl.Y, W: ctl.W, H: ctl.H})
}

func (d *BrowserDriver) FindDownloadTrigger(ctx context.Context) (locator.Control, error) {
	ctl, err := locator.FindControl(ctx, d.ev, locator.DownloadTriggerSpec(),
		locator.DefaultControlTimeout, locator.DefaultPollInterval)
	if err != nil {
		return locator.Control{}, err
	}
	return *ctl, nil
}

func (d *BrowserDriver) ResolveFileURL(ctx context.Context) (string, bool, error) {
	u, err := locator.ResolveFileURL(ctx, d.ev)
	if errors.Is(err, locator.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return u, true, nil
}

// DirectTransfer fetches from inside the page so the session's cookies and
// headers apply, then persists the bytes.
func (d *BrowserDriver) DirectTransfer(ctx context.Context, url, fileName string) error {
	data, err := d.hook.FetchBytes(ctx, url)
	if err != nil {
		return err
	}
	path, err := d.dl.SaveBytes(fileName, data)
	if err != nil {
		return err
	}
	d.log.Info().Str("path", path).Msg("saved resume")
	return nil
}

// tabWaiter adapts a tabwatch.Armed to the orchestrator's TabWait and
// closes the captured tab once its URL is harvested.
type tabWaiter struct {
	armed *tabwatch.Armed
	tabs  *tabwatch.Watcher
}

func (t *tabWaiter) Wait(ctx context.Context, timeout time.Duration) (string, bool) {
	c, ok := t.armed.Wait(ctx, timeout)
	if !ok {
		return "", false
	}
	_ = t.tabs.CloseTab(c.TargetID)
	return c.URL, c.URL != ""
}

func (t *tabWaiter) Cancel() { t.armed.Cancel() }

func (d *BrowserDriver) ArmTabWatch() TabWait {
	return &tabWaiter{armed: d.tabs.Arm(locator.LooksLikeFileURL), tabs: d.tabs}
}

// ClickDownloadIntercepted arms the window.open hook, performs the click,
// and polls the hook's capture slot for a short window.
func (d *BrowserDriver) ClickDownloadIntercepted(ctx context.Context, ctl locator.Control) (string, bool, error) {
	if err := d.hook.Arm(ctx); err != nil {
		return "", false, err
	}
	defer func() {
		if derr := d.hook.Disarm(ctx); derr != nil {
			d.log.Debug().Err(derr).Msg("could not disarm intercept hook")
		}
	}()

	if err := d.sim.Click(ctx, ctl.Selector, gesture.Rect{X: ctl.X, Y: ctl.Y, W: ctl.W, H: ctl.H}); err != nil {
		return "", false, err
	}

	deadline := time.Now().Add(interceptWindow)
	for time.Now().Before(deadline) {
		u, ok, err := d.hook.ReadAndClear(ctx)
		if err != nil {
			return "", false, err
		}
		if ok && locator.LooksLikeFileURL(u) {
			return u, true, nil
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(interceptPoll):
		}
	}
	return "", false, nil
}

func (d *BrowserDriver) EnqueueTransfer(url, fileName string) {
	d.queue.Enqueue(transfer.Item{SourceURL: url, FileName: fileName})
}

// ClosePreview tries labeled dismiss controls first and falls back to
// Escape. All failures are swallowed; a stuck preview surfaces on the next
// candidate instead.
func (d *BrowserDriver) ClosePreview(ctx context.Context) {
	ctl, err := locator.FindControl(ctx, d.ev, locator.DismissSpec(), dismissTimeout, locator.DefaultPollInterval)
	if err == nil {
		if cerr := d.sim.Click(ctx, ctl.Selector, gesture.Rect{X: ctl.X, Y: ctl.Y, W: ctl.W, H: ctl.H}); cerr == nil {
			return
		}
	}
	if kerr := d.sim.PressEscape(ctx); kerr != nil {
		d.log.Debug().Err(kerr).Msg("escape dismiss failed")
	}
}
