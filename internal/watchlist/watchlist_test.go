package watchlist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stocktracker/internal/quote"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "watchlist.json"))
}

func f64(v float64) *float64 { return &v }

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := tempStore(t)
	items, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items: %+v", items)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	in := []Item{
		{Symbol: "600000", Name: "浦发银行", Kind: quote.KindStock, Market: quote.MarketCN, Group: "银行", AddedAt: 1700000000000, Alert: &Alert{High: f64(10), Low: f64(9)}},
		{Symbol: "AAPL", Name: "Apple", Kind: quote.KindStock, Market: quote.MarketUS, Group: "tech", AddedAt: 1700000000001},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("items: %+v", out)
	}
	if out[0].Alert == nil || *out[0].Alert.High != 10 || *out[0].Alert.Low != 9 {
		t.Fatalf("alert round trip: %+v", out[0].Alert)
	}
	if out[1].Alert != nil {
		t.Fatalf("absent alert round trip: %+v", out[1].Alert)
	}
}

func TestAlertsEnabled_DefaultsTrue(t *testing.T) {
	s := tempStore(t)
	if !s.AlertsEnabled() {
		t.Fatal("unset preference must default to enabled")
	}
	if err := s.SetAlertsEnabled(false); err != nil {
		t.Fatalf("set: %v", err)
	}
	if s.AlertsEnabled() {
		t.Fatal("disabled preference not read back")
	}
	// settings write must not clobber items and vice versa
	if err := s.Save([]Item{{Symbol: "600000"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.AlertsEnabled() {
		t.Fatal("saving items clobbered settings")
	}
	items, _ := s.Load()
	if len(items) != 1 {
		t.Fatalf("items lost: %+v", items)
	}
}

func TestWatch_SignalsOnSave(t *testing.T) {
	s := tempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := s.Save([]Item{{Symbol: "600000"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal after save")
	}
}
