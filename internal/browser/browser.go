// Package browser owns Chrome startup and the chromedp contexts the rest
// of the automation runs against.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	"github.com/mkravets/resume-exporter/internal/logging"
)

// Config holds browser launch options.
type Config struct {
	ExecPath     string
	ProfilePath  string
	DownloadDir  string
	Headless     bool
	WindowWidth  int
	WindowHeight int
	Timeout      time.Duration
}

// DefaultConfig returns launch defaults. The profile keeps the hiring
// console session alive between runs so login is usually a one-time step.
func DefaultConfig() Config {
	return Config{
		ExecPath:     DetectBrowser(),
		ProfilePath:  DefaultProfilePath(),
		WindowWidth:  1920,
		WindowHeight: 1080,
		Timeout:      2 * time.Hour,
	}
}

// Context bundles the chromedp contexts and their cancel functions.
type Context struct {
	Ctx         context.Context
	AllocCancel context.CancelFunc
	CtxCancel   context.CancelFunc
}

// New launches the browser and returns contexts ready for chromedp.Run.
func New(cfg Config) (*Context, error) {
	log := logging.Get("browser")

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(cfg.ExecPath),
		chromedp.UserDataDir(cfg.ProfilePath),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	ctx, timeoutCancel := context.WithTimeout(ctx, cfg.Timeout)
	combinedCancel := func() {
		timeoutCancel()
		ctxCancel()
	}

	log.Debug().Str("exec", cfg.ExecPath).Str("profile", cfg.ProfilePath).
		Bool("headless", cfg.Headless).Msg("browser launching")

	return &Context{
		Ctx:         ctx,
		AllocCancel: allocCancel,
		CtxCancel:   combinedCancel,
	}, nil
}

// Close tears down all browser contexts.
func (c *Context) Close() {
	if c.CtxCancel != nil {
		c.CtxCancel()
	}
	if c.AllocCancel != nil {
		c.AllocCancel()
	}
}

// Navigate loads the URL and gives the SPA a moment to render.
func Navigate(ctx context.Context, url string) error {
	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(5*time.Second),
	)
}

// ConfigureDownloads points the browser's native download behavior at
// downloadDir, catching any file the fallback chain saves through the
// browser itself.
func ConfigureDownloads(ctx context.Context, downloadDir string) error {
	if err := chromedp.Run(ctx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
	); err != nil {
		return err
	}
	log := logging.Get("browser")
	log.Info().Str("dir", downloadDir).Msg("downloads directory configured")
	return nil
}

// GetCurrentURL returns the current page URL.
func GetCurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}
