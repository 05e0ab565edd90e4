package tabwatch

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/stretchr/testify/assert"
)

func armedWithChannel(ch chan target.ID) *Armed {
	return &Armed{ch: ch, cancel: func() {}, url: make(map[target.ID]string)}
}

func TestWaitDeliversCapture(t *testing.T) {
	ch := make(chan target.ID, 1)
	a := armedWithChannel(ch)
	a.url["tab-1"] = "https://cdn.example.com/doc.pdf"
	ch <- target.ID("tab-1")

	got, ok := a.Wait(context.Background(), time.Second)
	assert.True(t, ok)
	assert.Equal(t, target.ID("tab-1"), got.TargetID)
	assert.Equal(t, "https://cdn.example.com/doc.pdf", got.URL)
}

func TestWaitTimesOut(t *testing.T) {
	a := armedWithChannel(make(chan target.ID))

	start := time.Now()
	_, ok := a.Wait(context.Background(), 30*time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWaitHonorsContextCancel(t *testing.T) {
	a := armedWithChannel(make(chan target.ID))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := a.Wait(ctx, time.Second)
	assert.False(t, ok)
}
