package provider

import (
	"context"

	"stocktracker/internal/quote"
)

// Provider fetches normalized quotes for a set of symbols from one upstream
// source. Implementations absorb per-symbol failures where the upstream
// allows it; a returned error means the provider as a whole was unusable for
// this batch and the caller should fall back.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]quote.Quote, error)
}
