package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stocktracker/internal/notify"
	"stocktracker/internal/quote"
	"stocktracker/internal/watchlist"
)

type fakeWatchlist struct {
	items []watchlist.Item
	err   error
}

func (f *fakeWatchlist) Load() ([]watchlist.Item, error) { return f.items, f.err }
func (f *fakeWatchlist) AlertsEnabled() bool             { return true }

type fakeQuotes struct {
	mu     sync.Mutex
	quotes []quote.Quote
	calls  [][]string
}

func (f *fakeQuotes) FetchQuotes(_ context.Context, symbols []string) []quote.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbols)
	return f.quotes
}

type fakeCache struct {
	mu          sync.Mutex
	puts        map[string]quote.Quote
	invalidated int
}

func newFakeCache() *fakeCache { return &fakeCache{puts: make(map[string]quote.Quote)} }

func (f *fakeCache) Put(symbol string, q quote.Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts[symbol] = q
}

func (f *fakeCache) InvalidateAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

type fakeSnapshot struct {
	mu    sync.Mutex
	saved []quote.Quote
	at    int64
}

func (f *fakeSnapshot) Save(_ context.Context, quotes []quote.Quote, at int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = quotes
	f.at = at
	return nil
}

type fakeSink struct {
	mu      sync.Mutex
	batches [][]notify.Notification
}

func (f *fakeSink) Enqueue(batch []notify.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
}

func fp(v float64) *float64 { return &v }

func TestUpdateOnce(t *testing.T) {
	wl := &fakeWatchlist{items: []watchlist.Item{
		{Symbol: "600000", Alert: &watchlist.Alert{High: fp(10)}},
		{Symbol: "AAPL"},
	}}
	qs := &fakeQuotes{quotes: []quote.Quote{
		{Symbol: "600000", Name: "浦发银行", Price: 10.5},
		{Symbol: "AAPL", Name: "Apple Inc.", Price: 189},
	}}
	cache := newFakeCache()
	snap := &fakeSnapshot{}
	sink := &fakeSink{}
	s := &Scheduler{Watchlist: wl, Quotes: qs, Cache: cache, Snapshot: snap, Alerts: sink}

	if err := s.UpdateOnce(context.Background()); err != nil {
		t.Fatalf("UpdateOnce: %v", err)
	}
	if len(qs.calls) != 1 || len(qs.calls[0]) != 2 {
		t.Fatalf("fetch calls = %v", qs.calls)
	}
	if len(cache.puts) != 2 {
		t.Fatalf("cache puts = %d, want 2", len(cache.puts))
	}
	if len(snap.saved) != 2 || snap.at == 0 {
		t.Fatalf("snapshot saved=%d at=%d", len(snap.saved), snap.at)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("alert batches = %v", sink.batches)
	}
	if sink.batches[0][0].ContextMessage != "600000" {
		t.Fatalf("alert symbol = %q", sink.batches[0][0].ContextMessage)
	}
}

func TestUpdateOnceEmptyWatchlist(t *testing.T) {
	qs := &fakeQuotes{}
	s := &Scheduler{Watchlist: &fakeWatchlist{}, Quotes: qs, Cache: newFakeCache()}
	if err := s.UpdateOnce(context.Background()); err != nil {
		t.Fatalf("UpdateOnce: %v", err)
	}
	if len(qs.calls) != 0 {
		t.Fatalf("fetch should not run on empty watchlist")
	}
}

func TestUpdateOnceNoData(t *testing.T) {
	wl := &fakeWatchlist{items: []watchlist.Item{{Symbol: "600000"}}}
	s := &Scheduler{Watchlist: wl, Quotes: &fakeQuotes{}, Cache: newFakeCache()}
	if err := s.UpdateOnce(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestUpdateOnceLoadError(t *testing.T) {
	wl := &fakeWatchlist{err: errors.New("corrupt store")}
	s := &Scheduler{Watchlist: wl, Quotes: &fakeQuotes{}, Cache: newFakeCache()}
	if err := s.UpdateOnce(context.Background()); err == nil {
		t.Fatalf("want load error")
	}
}

func TestRunInvalidatesOnChange(t *testing.T) {
	wl := &fakeWatchlist{items: []watchlist.Item{{Symbol: "600000"}}}
	qs := &fakeQuotes{quotes: []quote.Quote{{Symbol: "600000", Price: 10}}}
	cache := newFakeCache()
	s := &Scheduler{Watchlist: wl, Quotes: qs, Cache: cache, Interval: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		s.Run(ctx, changes)
		close(done)
	}()

	changes <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cache.mu.Lock()
		n := cache.invalidated
		cache.mu.Unlock()
		if n >= 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cache.mu.Lock()
	if cache.invalidated < 1 {
		cache.mu.Unlock()
		t.Fatalf("cache never invalidated on change signal")
	}
	cache.mu.Unlock()

	// startup run plus the change-triggered run
	qs.mu.Lock()
	calls := len(qs.calls)
	qs.mu.Unlock()
	if calls < 2 {
		t.Fatalf("fetch calls = %d, want >= 2", calls)
	}

	cancel()
	<-done
}
