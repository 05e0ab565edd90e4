package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDownloader tracks call starts and detects overlap.
type recordingDownloader struct {
	mu       sync.Mutex
	starts   []time.Time
	items    []Item
	inFlight int
	overlap  bool
	delay    time.Duration
	err      error
}

func (r *recordingDownloader) Download(_ context.Context, sourceURL, fileName string) error {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > 1 {
		r.overlap = true
	}
	r.starts = append(r.starts, time.Now())
	r.items = append(r.items, Item{SourceURL: sourceURL, FileName: fileName})
	r.mu.Unlock()

	time.Sleep(r.delay)

	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()
	return r.err
}

func (r *recordingDownloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts)
}

func TestQueueSerialWithSpacing(t *testing.T) {
	dl := &recordingDownloader{delay: 5 * time.Millisecond}
	spacing := 40 * time.Millisecond
	q := NewQueue(context.Background(), dl, spacing, nil)

	q.Enqueue(Item{SourceURL: "https://example/media/r1.pdf", FileName: "a.pdf"})
	q.Enqueue(Item{SourceURL: "https://example/media/r2.pdf", FileName: "b.pdf"})
	q.Enqueue(Item{SourceURL: "https://example/media/r3.pdf", FileName: "c.pdf"})

	require.Eventually(t, func() bool { return dl.count() == 3 }, 2*time.Second, 5*time.Millisecond)

	dl.mu.Lock()
	defer dl.mu.Unlock()
	assert.False(t, dl.overlap, "transfers must never overlap")
	assert.Equal(t, "a.pdf", dl.items[0].FileName)
	assert.Equal(t, "b.pdf", dl.items[1].FileName)
	assert.Equal(t, "c.pdf", dl.items[2].FileName)
	for i := 1; i < 3; i++ {
		gap := dl.starts[i].Sub(dl.starts[i-1])
		assert.GreaterOrEqual(t, gap, spacing-2*time.Millisecond, "consecutive starts must honor minimum spacing")
	}
}

func TestQueueWorkerRestartsAfterDrain(t *testing.T) {
	dl := &recordingDownloader{}
	q := NewQueue(context.Background(), dl, 5*time.Millisecond, nil)

	q.Enqueue(Item{FileName: "first.pdf"})
	require.Eventually(t, func() bool { return dl.count() == 1 }, time.Second, 2*time.Millisecond)
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return !q.running
	}, time.Second, 2*time.Millisecond)

	q.Enqueue(Item{FileName: "second.pdf"})
	require.Eventually(t, func() bool { return dl.count() == 2 }, time.Second, 2*time.Millisecond)
}

func TestQueueReportsResults(t *testing.T) {
	dl := &recordingDownloader{err: errors.New("boom")}
	var mu sync.Mutex
	var errs []error
	q := NewQueue(context.Background(), dl, time.Millisecond, func(_ Item, err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})

	q.Enqueue(Item{FileName: "x.pdf"})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) == 1
	}, time.Second, 2*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Error(t, errs[0])
}
