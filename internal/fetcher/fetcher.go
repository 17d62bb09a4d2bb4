package fetcher

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"stocktracker/internal/provider"
	"stocktracker/internal/quote"
)

// FundProvider resolves fund codes into fund quotes.
type FundProvider interface {
	FetchFund(ctx context.Context, code string) (quote.FundQuote, error)
}

// Fetcher drives the per-market provider chains. It is an explicit value
// with injected providers; construct one per process and pass it where
// quotes are needed.
type Fetcher struct {
	// CN is the ordered fallback chain for the mainland market: the first
	// provider that returns without error wins, even with zero quotes.
	CN []provider.Provider
	// US serves one-request-per-symbol lookups and absorbs its own
	// per-symbol failures.
	US provider.Provider
	// Funds is optional; nil disables fund lookups.
	Funds FundProvider
}

func New(cn []provider.Provider, us provider.Provider, funds FundProvider) *Fetcher {
	return &Fetcher{CN: cn, US: us, Funds: funds}
}

// FetchQuotes resolves quotes for the given symbols and never fails the
// caller: provider errors degrade to missing symbols. Symbols are
// partitioned by shape — 6-digit codes go to the CN chain in one batch,
// 1-5 uppercase letters go to the US provider — and anything matching
// neither rule is dropped. The two markets are fetched concurrently.
func (f *Fetcher) FetchQuotes(ctx context.Context, symbols []string) []quote.Quote {
	var cn, us []string
	for _, s := range symbols {
		switch {
		case quote.IsCNSymbol(s):
			cn = append(cn, s)
		case quote.IsUSSymbol(s):
			us = append(us, s)
		default:
			log.Printf("fetcher: unclassifiable symbol %q dropped", s)
		}
	}

	var (
		mu  sync.Mutex
		out []quote.Quote
		g   errgroup.Group
	)
	if len(cn) > 0 {
		g.Go(func() error {
			qs := f.fetchCN(ctx, cn)
			mu.Lock()
			out = append(out, qs...)
			mu.Unlock()
			return nil
		})
	}
	if len(us) > 0 && f.US != nil {
		g.Go(func() error {
			qs, err := f.US.Fetch(ctx, us)
			if err != nil {
				log.Printf("fetcher: us provider %s failed: %v", f.US.Name(), err)
				return nil
			}
			mu.Lock()
			out = append(out, qs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// fetchCN walks the fallback chain until a provider answers. Only a
// provider-level error advances the chain; an empty answer is accepted as
// final, matching upstream behavior when every code is unresolvable.
func (f *Fetcher) fetchCN(ctx context.Context, codes []string) []quote.Quote {
	for _, p := range f.CN {
		qs, err := p.Fetch(ctx, codes)
		if err == nil {
			return qs
		}
		log.Printf("fetcher: cn provider %s failed: %v", p.Name(), err)
	}
	return nil
}

// FetchFunds resolves fund codes sequentially; a failing code is logged and
// dropped.
func (f *Fetcher) FetchFunds(ctx context.Context, codes []string) []quote.FundQuote {
	if f.Funds == nil {
		return nil
	}
	var out []quote.FundQuote
	for _, code := range codes {
		fq, err := f.Funds.FetchFund(ctx, code)
		if err != nil {
			log.Printf("fetcher: fund %s: %v", code, err)
			continue
		}
		out = append(out, fq)
	}
	return out
}
