// Package scheduler drives the periodic refresh cycle: read the
// watchlist, fetch quotes, update the cache and snapshot, evaluate
// alerts and hand them to the notification queue.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"stocktracker/internal/alert"
	"stocktracker/internal/notify"
	"stocktracker/internal/quote"
	"stocktracker/internal/watchlist"
)

// DefaultInterval matches the refresh cadence the cache TTL is sized for.
const DefaultInterval = 30 * time.Second

// ErrNoData reports a cycle where every provider came back empty for a
// non-empty watchlist. Callers log it; it never stops the scheduler.
var ErrNoData = errors.New("scheduler: no quotes for any watched symbol")

type WatchlistSource interface {
	Load() ([]watchlist.Item, error)
	AlertsEnabled() bool
}

type QuoteSource interface {
	FetchQuotes(ctx context.Context, symbols []string) []quote.Quote
}

type Cache interface {
	Put(symbol string, q quote.Quote)
	InvalidateAll()
}

type SnapshotStore interface {
	Save(ctx context.Context, quotes []quote.Quote, at int64) error
}

type AlertSink interface {
	Enqueue(batch []notify.Notification)
}

type Scheduler struct {
	Watchlist WatchlistSource
	Quotes    QuoteSource
	Cache     Cache
	Snapshot  SnapshotStore // optional
	Alerts    AlertSink     // optional
	Interval  time.Duration

	busy sync.Mutex
}

// UpdateOnce runs one refresh cycle. It returns ErrNoData when the
// watchlist is non-empty but no provider returned anything; all other
// partial failures are absorbed by the fetcher.
func (s *Scheduler) UpdateOnce(ctx context.Context) error {
	items, err := s.Watchlist.Load()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(items))
	for _, it := range items {
		symbols = append(symbols, it.Symbol)
	}

	quotes := s.Quotes.FetchQuotes(ctx, symbols)
	for _, q := range quotes {
		s.Cache.Put(q.Symbol, q)
	}

	now := time.Now().UnixMilli()
	if s.Snapshot != nil && len(quotes) > 0 {
		if err := s.Snapshot.Save(ctx, quotes, now); err != nil {
			log.Printf("scheduler: snapshot save: %v", err)
		}
	}

	if s.Alerts != nil {
		events := alert.Evaluate(quotes, items)
		if len(events) > 0 {
			batch := make([]notify.Notification, 0, len(events))
			for _, ev := range events {
				batch = append(batch, notify.Notification{
					Title:          "价格提醒",
					Message:        ev.Message,
					ContextMessage: ev.Symbol,
				})
			}
			s.Alerts.Enqueue(batch)
		}
	}

	if len(quotes) == 0 {
		return ErrNoData
	}
	return nil
}

// Run refreshes on the interval until ctx is cancelled. A signal on
// changes means the watchlist itself was edited: the cache is purged and
// a refresh runs immediately. A cycle that is still in flight when the
// next trigger fires is not joined; the trigger is skipped with a log
// line.
func (s *Scheduler) Run(ctx context.Context, changes <-chan struct{}) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tryUpdate(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tryUpdate(ctx)
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.Cache.InvalidateAll()
			s.tryUpdate(ctx)
		}
	}
}

func (s *Scheduler) tryUpdate(ctx context.Context) {
	if !s.busy.TryLock() {
		log.Printf("scheduler: previous cycle still running, skipping")
		return
	}
	defer s.busy.Unlock()
	if err := s.UpdateOnce(ctx); err != nil {
		log.Printf("scheduler: update: %v", err)
	}
}
