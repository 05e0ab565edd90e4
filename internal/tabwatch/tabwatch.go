// Package tabwatch is the last rung of the download fallback chain: when
// the intercept hook catches nothing, the console has opened the file in a
// real new tab. The watcher is armed before the click, reports the tab that
// appears, and the stray tab is closed once its URL has been harvested.
package tabwatch

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/logging"
)

// DefaultAbandonTimeout bounds how long a candidate waits for a tab that
// may never open before the fallback chain gives up.
const DefaultAbandonTimeout = 30 * time.Second

// Capture describes a newly opened tab that matched the armed filter.
type Capture struct {
	TargetID target.ID
	URL      string
}

// Watcher arms per-click listeners against one browser context.
type Watcher struct {
	tabCtx context.Context
	log    zerolog.Logger
}

func New(tabCtx context.Context) *Watcher {
	return &Watcher{tabCtx: tabCtx, log: logging.Get("tabwatch")}
}

// Armed is a single-use listener. Every Arm call must be paired with
// either Wait or Cancel so the listener goroutine is released.
type Armed struct {
	ch     <-chan target.ID
	cancel context.CancelFunc

	mu  sync.Mutex
	url map[target.ID]string
}

// Arm starts listening for new targets whose URL satisfies match before
// the triggering click is dispatched. Arming after the click risks losing
// the tab creation event.
func (w *Watcher) Arm(match func(url string) bool) *Armed {
	ctx, cancel := context.WithCancel(w.tabCtx)
	a := &Armed{cancel: cancel, url: make(map[target.ID]string)}
	a.ch = chromedp.WaitNewTarget(ctx, func(info *target.Info) bool {
		if info.Type != "page" || !match(info.URL) {
			return false
		}
		a.mu.Lock()
		a.url[info.TargetID] = info.URL
		a.mu.Unlock()
		return true
	})
	return a
}

// Wait blocks until a matching tab opens, the timeout elapses, or ctx is
// cancelled. It always releases the listener.
func (a *Armed) Wait(ctx context.Context, timeout time.Duration) (Capture, bool) {
	defer a.cancel()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case id := <-a.ch:
		a.mu.Lock()
		u := a.url[id]
		a.mu.Unlock()
		return Capture{TargetID: id, URL: u}, true
	case <-timer.C:
		return Capture{}, false
	case <-ctx.Done():
		return Capture{}, false
	}
}

// Cancel releases an armed listener that will not be waited on.
func (a *Armed) Cancel() {
	a.cancel()
}

// CloseTab closes a captured tab so stray viewers don't pile up across a
// long run.
func (w *Watcher) CloseTab(id target.ID) error {
	err := chromedp.Run(w.tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.CloseTarget(id).Do(ctx)
	}))
	if err != nil {
		w.log.Warn().Err(err).Str("target", string(id)).Msg("could not close captured tab")
	}
	return err
}
