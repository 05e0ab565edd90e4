package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkravets/resume-exporter/internal/events"
)

func TestConsumeStopsOnDone(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf)

	ch := make(chan events.Event, 8)
	ch <- events.Started{Total: 2}
	ch <- events.Progress{Downloaded: 1, Total: 2, CandidateName: "Ada Lovelace"}
	ch <- events.DownloadError{CandidateName: "Grace Hopper", Err: "preview trigger: not found"}
	ch <- events.Done{Downloaded: 1, Failed: 1, Total: 2}
	// Events after Done must not be rendered.
	ch <- events.Log{Message: "late line"}

	d.Consume(ch)

	out := buf.String()
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "1 downloaded, 1 failed of 2")
	assert.NotContains(t, out, "late line")
}

func TestConsumeStopsOnStopped(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf)

	ch := make(chan events.Event, 2)
	ch <- events.Stopped{}

	d.Consume(ch)
	assert.Contains(t, buf.String(), "Stopped")
}
