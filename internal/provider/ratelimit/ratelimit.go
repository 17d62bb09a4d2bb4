package ratelimit

import (
	"context"
	"sync"
	"time"

	"stocktracker/internal/provider"
	"stocktracker/internal/quote"
)

// MinInterval wraps a provider and enforces a minimum time between calls.
// The free quote endpoints ban clients that poll too aggressively; the
// scheduler's own cadence normally satisfies this, but ad-hoc callers of the
// HTTP surface and the CLI go through the same gate. Concurrent calls wait
// until the interval has elapsed since the last call, or return early if the
// context is canceled.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Fetch(ctx context.Context, symbols []string) ([]quote.Quote, error) {
	if m.Interval > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	qs, err := m.P.Fetch(ctx, symbols)
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return qs, err
}
