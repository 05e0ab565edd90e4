package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/logging"
)

// Subfolder is the fixed directory resumes land in under the download dir.
const Subfolder = "Resumes"

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36"

// HTTPDownloader fetches resolved file URLs with the browser's own session
// cookies, avoiding the host's native download path that would re-request
// an already-consumed single-use URL.
type HTTPDownloader struct {
	client *http.Client
	dir    string
	log    zerolog.Logger
}

// NewHTTPDownloader writes into <downloadDir>/Resumes.
func NewHTTPDownloader(downloadDir string) *HTTPDownloader {
	jar, _ := cookiejar.New(nil)
	return &HTTPDownloader{
		client: &http.Client{Jar: jar, Timeout: 2 * time.Minute},
		dir:    filepath.Join(downloadDir, Subfolder),
		log:    logging.Get("downloader"),
	}
}

// SeedCookies copies the browser session's cookies into the HTTP client so
// authenticated media URLs resolve outside the page. ctx must be a live
// chromedp tab context.
func (d *HTTPDownloader) SeedCookies(ctx context.Context) error {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		got, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		cookies = got
		return nil
	}))
	if err != nil {
		return fmt.Errorf("reading browser cookies: %w", err)
	}
	d.seedJar(cookies)
	d.log.Debug().Int("count", len(cookies)).Msg("session cookies seeded")
	return nil
}

// seedJar loads browser cookies into the client's jar, keyed by the
// cookie's domain with any leading dot stripped.
func (d *HTTPDownloader) seedJar(cookies []*network.Cookie) {
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		u := &url.URL{Scheme: "https", Host: host, Path: "/"}
		d.client.Jar.SetCookies(u, []*http.Cookie{{Name: c.Name, Value: c.Value, Path: c.Path}})
	}
}

// Download fetches sourceURL and persists it as fileName, renaming on
// collision. The fetch writes through a .part file so an interrupted
// transfer never leaves a plausible-looking final file behind.
func (d *HTTPDownloader) Download(ctx context.Context, sourceURL, fileName string) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	outputPath := d.resolveCollision(filepath.Join(d.dir, fileName))
	tempPath := outputPath + ".part"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching file", resp.StatusCode)
	}

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("writing file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("finalizing output file: %w", err)
	}
	d.log.Info().Str("file", filepath.Base(outputPath)).Msg("saved")
	return nil
}

// SaveBytes persists an in-page fetch result through the same collision
// handling as Download.
func (d *HTTPDownloader) SaveBytes(fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	outputPath := d.resolveCollision(filepath.Join(d.dir, fileName))
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	d.log.Info().Str("file", filepath.Base(outputPath)).Int("bytes", len(data)).Msg("saved")
	return outputPath, nil
}

// resolveCollision auto-renames: name.pdf, name-(1).pdf, name-(2).pdf, ...
func (d *HTTPDownloader) resolveCollision(outputPath string) string {
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		return outputPath
	}
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	for index := 1; ; index++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
