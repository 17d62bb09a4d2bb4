package search

import (
	"context"
	"log"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"stocktracker/internal/quote"
)

// maxResults caps every search answer.
const maxResults = 10

// QuoteSource is the slice of the fetcher used to resolve a CN code's real
// name through a live quote.
type QuoteSource interface {
	FetchQuotes(ctx context.Context, symbols []string) []quote.Quote
}

// TextSearcher is one provider search endpoint.
type TextSearcher interface {
	Search(ctx context.Context, query string) ([]quote.SearchResult, error)
}

// Searcher routes free-text queries: exact CN codes resolve through a live
// fetch with the static name table as fallback, plain tickers echo as US
// results, and everything else fans out to the provider search endpoints.
type Searcher struct {
	Quotes QuoteSource
	CN     TextSearcher
	US     TextSearcher
}

var usTickerRe = regexp.MustCompile(`(?i)^[a-z]{1,5}$`)

// Search returns at most 10 results and never fails: provider search
// failures degrade to an empty contribution.
func (s *Searcher) Search(ctx context.Context, query string) []quote.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	switch {
	case quote.IsCNSymbol(query):
		return []quote.SearchResult{s.resolveCN(ctx, query)}
	case usTickerRe.MatchString(query):
		sym := strings.ToUpper(query)
		return []quote.SearchResult{{Symbol: sym, Name: sym, Kind: quote.KindStock, Market: quote.MarketUS}}
	}

	var (
		mu  sync.Mutex
		out []quote.SearchResult
		g   errgroup.Group
	)
	for _, ts := range []TextSearcher{s.CN, s.US} {
		if ts == nil {
			continue
		}
		ts := ts
		g.Go(func() error {
			rs, err := ts.Search(ctx, query)
			if err != nil {
				log.Printf("search: %v", err)
				return nil
			}
			mu.Lock()
			out = append(out, rs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// resolveCN recovers a 6-digit code's display name from a live quote; on
// fetch failure, or when the live name is just the generic placeholder, the
// static table answers instead.
func (s *Searcher) resolveCN(ctx context.Context, code string) quote.SearchResult {
	name := ""
	if s.Quotes != nil {
		if qs := s.Quotes.FetchQuotes(ctx, []string{code}); len(qs) > 0 && qs[0].Name != quote.PlaceholderName(code) {
			name = qs[0].Name
		}
	}
	if name == "" {
		name = quote.NameForCode(code)
	}
	return quote.SearchResult{Symbol: code, Name: name, Kind: quote.KindStock, Market: quote.MarketCN}
}
