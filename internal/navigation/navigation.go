// Package navigation scrolls the applicant list so virtualized rows are
// actually present in the DOM before discovery runs.
package navigation

import (
	"context"
	"fmt"
	"time"

	"github.com/mkravets/resume-exporter/internal/logging"
)

// Evaluator runs a script in the page. Satisfied by locator.PageEvaluator.
type Evaluator interface {
	Eval(ctx context.Context, script string, out any) error
}

const (
	// scrollStep is how far each priming step scrolls.
	scrollStep = 600
	// maxPrimeSteps bounds priming on very long lists.
	maxPrimeSteps = 30
)

// stepPause lets lazy rows render between steps. Variable so tests can
// shorten it.
var stepPause = 400 * time.Millisecond

const scrollScript = `(function() {
	window.scrollBy(0, %d);
	return document.documentElement.scrollTop || document.body.scrollTop;
})()`

const scrollTopScript = `(function() {
	window.scrollTo(0, 0);
	return 0;
})()`

// PrimeList scrolls to the bottom of the page in fixed steps, then returns
// to the top. Scrolling stops early once the scroll position stops
// advancing.
func PrimeList(ctx context.Context, ev Evaluator) error {
	log := logging.Get("navigation")

	last := -1.0
	steps := 0
	for steps < maxPrimeSteps {
		var pos float64
		if err := ev.Eval(ctx, fmt.Sprintf(scrollScript, scrollStep), &pos); err != nil {
			return fmt.Errorf("scrolling list: %w", err)
		}
		steps++
		if pos <= last {
			break
		}
		last = pos

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stepPause):
		}
	}
	log.Debug().Int("steps", steps).Msg("list primed")

	var top float64
	if err := ev.Eval(ctx, scrollTopScript, &top); err != nil {
		return fmt.Errorf("scrolling back to top: %w", err)
	}
	return nil
}
