package notify

import (
	"context"
	"log"
	"time"
)

// DefaultDelay is the gap between consecutive displayed notifications.
const DefaultDelay = time.Second

// Queue serializes notification display. Batches arrive via Enqueue and a
// single consumer drains them one at a time, pausing after each displayed
// notification. The enabled function is consulted fresh for every
// notification, so flipping the setting mid-drain silently discards the
// rest of the burst.
type Queue struct {
	notifier Notifier
	enabled  func() bool
	delay    time.Duration
	in       chan []Notification
}

func NewQueue(n Notifier, enabled func() bool, delay time.Duration) *Queue {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if enabled == nil {
		enabled = func() bool { return true }
	}
	return &Queue{
		notifier: n,
		enabled:  enabled,
		delay:    delay,
		in:       make(chan []Notification, 16),
	}
}

// Enqueue hands a batch to the consumer. It never blocks the caller; if
// the channel is full the batch is dropped with a log line.
func (q *Queue) Enqueue(batch []Notification) {
	if len(batch) == 0 {
		return
	}
	select {
	case q.in <- batch:
	default:
		log.Printf("notify: queue full, dropping %d notifications", len(batch))
	}
}

// Run consumes batches until ctx is cancelled. Call it from exactly one
// goroutine.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-q.in:
			q.drain(ctx, batch)
		}
	}
}

func (q *Queue) drain(ctx context.Context, batch []Notification) {
	for _, n := range batch {
		if ctx.Err() != nil {
			return
		}
		if !q.enabled() {
			continue
		}
		if _, err := q.notifier.Show(ctx, n); err != nil {
			log.Printf("notify: show: %v", err)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.delay):
		}
	}
}
