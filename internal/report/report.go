// Package report renders the final run summary after a download batch.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ErrorEntry is one candidate failure recorded during the run.
type ErrorEntry struct {
	Timestamp time.Time
	Candidate string
	Message   string
}

// Stats accumulates the numbers the final report prints.
type Stats struct {
	StartTime   time.Time
	EndTime     time.Time
	Scanned     int
	Downloaded  int
	Failed      int
	TotalSize   int64
	DownloadDir string
	Errors      []ErrorEntry
}

func New() *Stats {
	return &Stats{StartTime: time.Now()}
}

func (s *Stats) AddError(candidate, message string) {
	s.Errors = append(s.Errors, ErrorEntry{
		Timestamp: time.Now(),
		Candidate: candidate,
		Message:   message,
	})
}

// Finish stamps the end time and sums the size of everything under the
// download directory.
func (s *Stats) Finish() {
	s.EndTime = time.Now()
	if s.DownloadDir != "" {
		s.TotalSize = dirSize(s.DownloadDir)
	}
}

func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

func dirSize(dir string) int64 {
	var size int64
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func formatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("69")).
			Padding(0, 2)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const maxErrorsShown = 5

// Render builds the boxed report; Print writes it to stdout.
func (s *Stats) Render() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Run Report"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(label+":"), value))
	}
	row("Duration", formatDuration(s.Duration()))
	row("Candidates scanned", fmt.Sprintf("%d", s.Scanned))

	downloads := okStyle.Render(fmt.Sprintf("%d downloaded", s.Downloaded))
	if s.Failed > 0 {
		downloads += warnStyle.Render(fmt.Sprintf(", %d failed", s.Failed))
	}
	row("Resumes", downloads)

	if s.TotalSize > 0 {
		row("Total size", formatBytes(s.TotalSize))
	}
	if s.DownloadDir != "" {
		row("Saved to", s.DownloadDir)
	}

	if len(s.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(fmt.Sprintf("Errors (%d):", len(s.Errors))))
		b.WriteString("\n")
		for i, e := range s.Errors {
			if i == maxErrorsShown {
				b.WriteString(labelStyle.Render(fmt.Sprintf("  … and %d more", len(s.Errors)-maxErrorsShown)))
				b.WriteString("\n")
				break
			}
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", errStyle.Render("✗"), e.Candidate, e.Message))
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (s *Stats) Print() {
	s.Fprint(os.Stdout)
}

func (s *Stats) Fprint(w io.Writer) {
	s.Finish()
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Render())
}
