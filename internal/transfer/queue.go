// Package transfer moves resolved file URLs onto disk. A strict FIFO queue
// feeds a single worker so transfers never overlap and never arrive at the
// host faster than the configured spacing allows.
package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/logging"
)

// MinSpacing is the default floor between consecutive transfer starts.
const MinSpacing = 500 * time.Millisecond

// Item is one queued transfer.
type Item struct {
	SourceURL string
	FileName  string
}

// Downloader persists one file. Implementations must be safe to call from
// the queue's single worker goroutine.
type Downloader interface {
	Download(ctx context.Context, sourceURL, fileName string) error
}

// Queue is a serial transfer queue. The worker starts on the first enqueue,
// self-terminates when the queue empties, and restarts on the next enqueue.
// At most one transfer is ever in flight.
type Queue struct {
	mu        sync.Mutex
	items     []Item
	running   bool
	lastStart time.Time

	ctx      context.Context
	spacing  time.Duration
	dl       Downloader
	onResult func(Item, error)
	log      zerolog.Logger
}

// NewQueue builds an idle queue. onResult may be nil; ctx bounds the
// lifetime of all transfers.
func NewQueue(ctx context.Context, dl Downloader, spacing time.Duration, onResult func(Item, error)) *Queue {
	if spacing <= 0 {
		spacing = MinSpacing
	}
	return &Queue{
		ctx:      ctx,
		spacing:  spacing,
		dl:       dl,
		onResult: onResult,
		log:      logging.Get("transfer"),
	}
}

// Enqueue appends an item and wakes the worker if it is idle.
func (q *Queue) Enqueue(it Item) {
	q.mu.Lock()
	q.items = append(q.items, it)
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()
	if start {
		go q.drain()
	}
}

// Pending reports the number of queued (not yet started) items.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		it := q.items[0]
		q.items = q.items[1:]
		wait := q.spacing - time.Since(q.lastStart)
		q.mu.Unlock()

		if wait > 0 {
			select {
			case <-time.After(wait):
			case <-q.ctx.Done():
				q.finish(it, q.ctx.Err())
				continue
			}
		}

		q.mu.Lock()
		q.lastStart = time.Now()
		q.mu.Unlock()

		err := q.dl.Download(q.ctx, it.SourceURL, it.FileName)
		q.finish(it, err)
	}
}

func (q *Queue) finish(it Item, err error) {
	if err != nil {
		q.log.Warn().Str("file", it.FileName).Err(err).Msg("transfer failed")
	} else {
		q.log.Debug().Str("file", it.FileName).Msg("transfer complete")
	}
	if q.onResult != nil {
		q.onResult(it, err)
	}
}
