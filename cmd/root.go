package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkravets/resume-exporter/internal/auth"
	"github.com/mkravets/resume-exporter/internal/automation"
	"github.com/mkravets/resume-exporter/internal/browser"
	"github.com/mkravets/resume-exporter/internal/display"
	"github.com/mkravets/resume-exporter/internal/events"
	"github.com/mkravets/resume-exporter/internal/filter"
	"github.com/mkravets/resume-exporter/internal/gesture"
	"github.com/mkravets/resume-exporter/internal/intercept"
	"github.com/mkravets/resume-exporter/internal/locator"
	"github.com/mkravets/resume-exporter/internal/logging"
	"github.com/mkravets/resume-exporter/internal/orchestrator"
	"github.com/mkravets/resume-exporter/internal/report"
	"github.com/mkravets/resume-exporter/internal/state"
	"github.com/mkravets/resume-exporter/internal/tabwatch"
	"github.com/mkravets/resume-exporter/internal/transfer"
)

// Version is set at build time via -ldflags="-X ...cmd.Version=x.x.x".
var Version = "dev"

var (
	pageURL     string
	profilePath string
	execPath    string
	downloadDir string
	matchName   string
	headless    bool
	debug       bool
	limit       int
	minDelay    time.Duration
	maxDelay    time.Duration
)

var rootCmd = &cobra.Command{
	Use:     "resume-exporter",
	Short:   "Bulk-download applicant resumes from a hiring console",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	home, _ := os.UserHomeDir()

	rootCmd.PersistentFlags().StringVarP(&pageURL, "url", "u", "", "Applicant list page URL (required)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", browser.DefaultProfilePath(), "Path to browser profile")
	rootCmd.PersistentFlags().StringVar(&execPath, "exec", "", "Browser executable (auto-detect if empty)")
	rootCmd.PersistentFlags().StringVarP(&downloadDir, "download", "d", filepath.Join(home, "Downloads"), "Directory to save downloads")
	rootCmd.PersistentFlags().StringVarP(&matchName, "match", "m", "", "Only process candidates whose name matches this pattern")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "Run the browser headless (login must already be cached in the profile)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVarP(&limit, "limit", "n", 0, "Max candidates to process (0 = all)")

	rootCmd.Flags().DurationVar(&minDelay, "min-delay", 2*time.Second, "Minimum pause between candidates")
	rootCmd.Flags().DurationVar(&maxDelay, "max-delay", 5*time.Second, "Maximum pause between candidates")
}

// stack bundles everything a command needs after browser startup.
type stack struct {
	browser    *browser.Context
	controller *automation.Controller
	queue      *transfer.Queue
	hub        *events.Hub
}

// openConsole launches the browser, loads the applicant page, and waits for
// login when the session is missing.
func openConsole() (*browser.Context, error) {
	log := logging.Get("cmd")

	if pageURL == "" {
		return nil, fmt.Errorf("--url is required: the applicant list page to export from")
	}

	if execPath == "" {
		execPath = browser.DetectBrowser()
		if execPath == "" {
			return nil, fmt.Errorf("no Chromium-family browser found; install Chrome or pass --exec")
		}
		log.Info().Str("exec", execPath).Msg("auto-detected browser")
	}

	if strings.HasPrefix(downloadDir, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			downloadDir = filepath.Join(home, downloadDir[2:])
		}
	}
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}

	cfg := browser.DefaultConfig()
	cfg.ExecPath = execPath
	cfg.ProfilePath = profilePath
	cfg.DownloadDir = downloadDir
	cfg.Headless = headless

	bctx, err := browser.New(cfg)
	if err != nil {
		return nil, err
	}

	if err := browser.Navigate(bctx.Ctx, pageURL); err != nil {
		bctx.Close()
		return nil, fmt.Errorf("opening applicant page: %w", err)
	}
	if err := browser.ConfigureDownloads(bctx.Ctx, downloadDir); err != nil {
		log.Warn().Err(err).Msg("could not configure download directory")
	}

	loggedIn, err := auth.CheckLoginStatus(bctx.Ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not check login status")
	}
	if !loggedIn {
		if headless {
			bctx.Close()
			return nil, fmt.Errorf("no cached session in this profile; run once without --headless to log in")
		}
		if err := auth.WaitForLogin(bctx.Ctx); err != nil {
			bctx.Close()
			return nil, err
		}
		if err := browser.Navigate(bctx.Ctx, pageURL); err != nil {
			log.Warn().Err(err).Msg("could not navigate after login")
		}
	}

	return bctx, nil
}

// buildStack wires the page-side collaborators over an open console tab.
func buildStack(bctx *browser.Context) (*stack, error) {
	log := logging.Get("cmd")
	ctx := bctx.Ctx

	ev := locator.NewPageEvaluator()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sim := gesture.New(gesture.NewCDPDispatcher(), rng)
	hook := intercept.New(ev)
	tabs := tabwatch.New(ctx)

	dl := transfer.NewHTTPDownloader(downloadDir)
	if err := dl.SeedCookies(ctx); err != nil {
		log.Warn().Err(err).Msg("could not seed session cookies; queued transfers may fail")
	}
	hub := events.NewHub()
	run := state.NewRun()
	queue := transfer.NewQueue(ctx, dl, transfer.MinSpacing, func(it transfer.Item, err error) {
		if err != nil {
			hub.Publish(events.Log{Message: fmt.Sprintf("queued transfer %s failed: %v", it.FileName, err)})
		}
	})

	drv := orchestrator.NewBrowserDriver(ctx, ev, sim, hook, tabs, queue, dl)
	cfg := orchestrator.DefaultConfig()
	cfg.MinDelay = minDelay
	cfg.MaxDelay = maxDelay
	runner := orchestrator.NewRunner(drv, run, hub, rng, cfg)

	scanner := locator.NewScanner(ev)
	ctrl := automation.NewController(ctx, scanner, runner, run)
	ctrl.SetPrimer(ev)
	ctrl.SetLimit(limit)

	nameFilter, err := filter.NewNameFilter(matchName)
	if err != nil {
		return nil, err
	}
	ctrl.SetNameFilter(nameFilter)

	return &stack{browser: bctx, controller: ctrl, queue: queue, hub: hub}, nil
}

func runDownload() error {
	logging.Init(debug)
	log := logging.Get("cmd")

	bctx, err := openConsole()
	if err != nil {
		return err
	}
	defer bctx.Close()

	st, err := buildStack(bctx)
	if err != nil {
		return err
	}

	stats := report.New()
	stats.DownloadDir = filepath.Join(downloadDir, transfer.Subfolder)

	n, err := st.controller.ScanCandidates()
	if err != nil {
		if browser.IsBrowserClosed(err) {
			return fmt.Errorf("browser closed before the scan finished")
		}
		return err
	}
	stats.Scanned = n
	if n == 0 {
		log.Warn().Msg("no candidates found on this page")
		return nil
	}

	// First Ctrl-C stops after the candidate in flight; the second kills
	// the browser context outright.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		log.Warn().Msg("stop requested; finishing the current candidate")
		st.controller.StopDownload()
		<-sigCh
		bctx.Close()
	}()

	ch, cancel := st.hub.Subscribe()
	defer cancel()

	if err := st.controller.StartDownload(); err != nil {
		return err
	}

	disp := display.New()
	for ev := range ch {
		if de, ok := ev.(events.DownloadError); ok {
			stats.AddError(de.CandidateName, de.Err)
		}
		if disp.Render(ev) {
			break
		}
	}
	st.controller.Wait()

	// Intercepted and tab-watch captures ride the background queue; give
	// it time to drain before reporting.
	for st.queue.Pending() > 0 {
		select {
		case <-bctx.Ctx.Done():
			log.Warn().Int("pending", st.queue.Pending()).Msg("browser closed with transfers pending")
			goto done
		case <-time.After(500 * time.Millisecond):
		}
	}
done:
	snap := st.controller.Snapshot()
	stats.Downloaded = snap.Downloaded
	stats.Failed = snap.Failed
	stats.Print()
	return nil
}
