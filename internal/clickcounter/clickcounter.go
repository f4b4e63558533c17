// Package clickcounter accumulates click events for short codes and flushes
// them to storage in the background. The redirect path only enqueues into a
// bounded channel and never waits for persistence; a failed or dropped
// increment is reported through the error channel, not to the visitor.
package clickcounter

import (
	"context"
	"errors"
	"time"
)

type clicksKeeper interface {
	AddClicks(ctx context.Context, clicksByCode map[string]int64) error
}

// ErrQueueFull is reported when a click had to be dropped because the
// queue was at capacity.
var ErrQueueFull = errors.New("click queue is full, click dropped")

// ClickCounter is the background click accounting worker.
type ClickCounter struct {
	queue         chan string
	db            clicksKeeper
	flushInterval time.Duration
	errorChannel  chan error
}

// New creates a ClickCounter with a bounded queue.
func New(
	db clicksKeeper,
	queueCapacity int,
	flushInterval time.Duration,
) *ClickCounter {
	return &ClickCounter{
		db:            db,
		queue:         make(chan string, queueCapacity),
		flushInterval: flushInterval,
		errorChannel:  make(chan error, queueCapacity),
	}
}

// Enqueue records one click for the given short code. It never blocks:
// when the queue is full the click is dropped and the loss is reported
// through the error channel.
func (c *ClickCounter) Enqueue(shortCode string) {
	select {
	case c.queue <- shortCode:
	default:
		select {
		case c.errorChannel <- ErrQueueFull:
		default:
		}
	}
}

// ListenErrors invokes the callback for every error produced by the
// worker, such as a failed flush or a dropped click.
func (c *ClickCounter) ListenErrors(callback func(error)) {
	go func() {
		for err := range c.errorChannel {
			callback(err)
		}
	}()
}

// Run starts the background flush loop. It aggregates queued clicks per
// short code and writes them out every flush interval. Cancelling the
// context performs a final flush and stops the loop.
func (c *ClickCounter) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.flush(ctx)
			case <-ctx.Done():
				c.flush(context.Background())

				return
			}
		}
	}()
}

func (c *ClickCounter) flush(ctx context.Context) {
	clicksByCode := map[string]int64{}
	for {
		select {
		case shortCode := <-c.queue:
			clicksByCode[shortCode]++
			continue
		default:
		}
		break
	}

	if len(clicksByCode) == 0 {
		return
	}

	if err := c.db.AddClicks(ctx, clicksByCode); err != nil {
		select {
		case c.errorChannel <- err:
		default:
		}
	}
}
