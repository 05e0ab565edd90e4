// Package display renders run events to the terminal. It is a passive
// subscriber: the automation loop never waits for it, and runs fine with no
// display attached at all.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkravets/resume-exporter/internal/events"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
)

// Display consumes events from a hub subscription and prints progress.
type Display struct {
	w io.Writer
}

func New() *Display {
	return &Display{w: os.Stdout}
}

func NewWithWriter(w io.Writer) *Display {
	return &Display{w: w}
}

// Consume renders events until ch closes or a terminal Done/Stopped event
// arrives.
func (d *Display) Consume(ch <-chan events.Event) {
	for ev := range ch {
		if d.Render(ev) {
			return
		}
	}
}

// Render prints one event and reports whether it ends the run.
func (d *Display) Render(ev events.Event) bool {
	switch e := ev.(type) {
	case events.Started:
		fmt.Fprintln(d.w, headerStyle.Render(fmt.Sprintf("Downloading resumes for %d candidates", e.Total)))
	case events.Progress:
		line := fmt.Sprintf("[%d/%d] %s", e.Downloaded+e.Failed, e.Total, e.CandidateName)
		if e.Failed > 0 {
			line += dimStyle.Render(fmt.Sprintf("  (%d failed)", e.Failed))
		}
		fmt.Fprintln(d.w, successStyle.Render(line))
	case events.DownloadError:
		fmt.Fprintln(d.w, errorStyle.Render(fmt.Sprintf("✗ %s: %s", e.CandidateName, e.Err)))
	case events.Log:
		fmt.Fprintln(d.w, dimStyle.Render(e.Message))
	case events.Done:
		fmt.Fprintln(d.w, infoStyle.Render(fmt.Sprintf("Done: %d downloaded, %d failed of %d", e.Downloaded, e.Failed, e.Total)))
		return true
	case events.Stopped:
		fmt.Fprintln(d.w, infoStyle.Render("Stopped"))
		return true
	}
	return false
}
