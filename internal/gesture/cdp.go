package gesture

import (
	"context"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// CDPDispatcher sends gesture events over the Chrome DevTools Protocol so
// they arrive as trusted input, not scripted DOM events.
type CDPDispatcher struct{}

func NewCDPDispatcher() *CDPDispatcher {
	return &CDPDispatcher{}
}

func (CDPDispatcher) ScrollIntoView(ctx context.Context, selector string) error {
	return chromedp.Run(ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
}

func (CDPDispatcher) MouseMove(ctx context.Context, x, y float64) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	}))
}

func (CDPDispatcher) MousePress(ctx context.Context, x, y float64) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx)
	}))
}

func (CDPDispatcher) MouseRelease(ctx context.Context, x, y float64) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx)
	}))
}

func (CDPDispatcher) KeyEscape(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.KeyEvent("\x1b"))
}
