package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"stocktracker/internal/quote"
)

// Alert carries the per-item thresholds; each side is independently
// optional.
type Alert struct {
	High *float64 `json:"high,omitempty"`
	Low  *float64 `json:"low,omitempty"`
}

// Item is one user-curated watchlist entry. Identity is (symbol, market).
type Item struct {
	Symbol  string       `json:"symbol"`
	Name    string       `json:"name"`
	Kind    quote.Kind   `json:"type"`
	Market  quote.Market `json:"market"`
	Group   string       `json:"group"`
	AddedAt int64        `json:"addedAt"` // epoch millis
	Alert   *Alert       `json:"alert,omitempty"`
}

// Settings is the user preference blob stored next to the items.
type Settings struct {
	Notifications struct {
		PriceAlert *bool `json:"priceAlert,omitempty"`
	} `json:"notifications"`
}

type document struct {
	Items    []Item    `json:"items"`
	Settings *Settings `json:"settings,omitempty"`
}

// Store is a JSON document file holding the watchlist and user settings.
// The core only reads items and settings; writes come from the UI surface
// through Save. A missing file reads as an empty watchlist.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

func (s *Store) read() (document, error) {
	var doc document
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read watchlist: %w", err)
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("parse watchlist: %w", err)
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	// write-then-rename keeps concurrent readers off half-written files
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace watchlist: %w", err)
	}
	return nil
}

// Load returns the current items; a missing file is an empty list.
func (s *Store) Load() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Save replaces the item list, preserving settings.
func (s *Store) Save(items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Items = items
	return s.write(doc)
}

// AlertsEnabled reads the price-alert preference fresh from disk; unset or
// unreadable means enabled.
func (s *Store) AlertsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil || doc.Settings == nil || doc.Settings.Notifications.PriceAlert == nil {
		return true
	}
	return *doc.Settings.Notifications.PriceAlert
}

// SetAlertsEnabled flips the price-alert preference, preserving items.
func (s *Store) SetAlertsEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.Settings == nil {
		doc.Settings = &Settings{}
	}
	doc.Settings.Notifications.PriceAlert = &enabled
	return s.write(doc)
}

// Watch emits a signal whenever the watchlist file changes, until ctx is
// done. Signals are coalesced; consumers treat one signal as "something
// changed" and reload. This is the change-notification stream the scheduler
// subscribes to for cache invalidation.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// watch the directory: editors and our own write-then-rename replace
	// the file inode, which a file-level watch would lose
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return nil, err
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != s.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watchlist: watch: %v", err)
			}
		}
	}()
	return ch, nil
}
