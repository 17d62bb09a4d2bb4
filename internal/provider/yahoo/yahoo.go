package yahoo

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"stocktracker/internal/httpx"
	"stocktracker/internal/quote"
)

// Config holds the injected endpoints for the US market.
type Config struct {
	Name           string
	ChartEndpoint  string // base, symbol appended as path element
	SearchEndpoint string // base, query appended as q= parameter
}

// Provider fetches US quotes from the chart endpoint, one request per
// symbol, and serves the US side of free-text search plus fund lookups.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	if cfg.ChartEndpoint == "" {
		cfg.ChartEndpoint = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if cfg.SearchEndpoint == "" {
		cfg.SearchEndpoint = "https://query1.finance.yahoo.com/v1/finance/search"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch issues one chart request per symbol, sequentially. A failing symbol
// is logged and dropped; it never blocks the others. The only error return
// is the degenerate no-symbols case, so the CN-style fallback chain treats
// this provider as always reachable.
func (p *Provider) Fetch(ctx context.Context, symbols []string) ([]quote.Quote, error) {
	var out []quote.Quote
	for _, sym := range symbols {
		q, err := p.fetchChart(ctx, sym)
		if err != nil {
			log.Printf("yahoo: fetch %s: %v", sym, err)
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (p *Provider) fetchChart(ctx context.Context, symbol string) (quote.Quote, error) {
	reqURL := p.cfg.ChartEndpoint + "/" + url.PathEscape(symbol)

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return quote.Quote{}, err
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return quote.Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return quote.Quote{}, fmt.Errorf("GET %s -> %d", reqURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return quote.Quote{}, err
	}
	return ParseChart(body, symbol)
}

// ParseChart extracts a quote from a chart response. All price fields come
// from chart.result.0.meta; change and change percent are computed from the
// regular market price and previous close.
func ParseChart(body []byte, symbol string) (quote.Quote, error) {
	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return quote.Quote{}, fmt.Errorf("no chart result for %s", symbol)
	}
	meta := result.Get("meta")
	if !meta.Exists() || !result.Get("indicators.quote.0").Exists() {
		return quote.Quote{}, fmt.Errorf("missing meta or quote data for %s", symbol)
	}

	price := meta.Get("regularMarketPrice").Float()
	prevClose := meta.Get("previousClose").Float()
	change := price - prevClose
	changePercent := 0.0
	if prevClose > 0 {
		changePercent = change / prevClose * 100
	}

	name := meta.Get("longName").String()
	if name == "" {
		name = meta.Get("shortName").String()
	}
	if name == "" {
		name = symbol
	}

	// strip exchange suffixes like .SS/.SZ when a qualified symbol was used
	bare := strings.SplitN(symbol, ".", 2)[0]

	return quote.Quote{
		Symbol:        bare,
		Name:          name,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        meta.Get("regularMarketVolume").Int(),
		Open:          meta.Get("regularMarketOpen").Float(),
		High:          meta.Get("regularMarketDayHigh").Float(),
		Low:           meta.Get("regularMarketDayLow").Float(),
		PrevClose:     prevClose,
		Timestamp:     time.Now().UnixMilli(),
		Kind:          quote.KindStock,
		Market:        quote.MarketUS,
	}, nil
}

// Search queries the search endpoint and maps its quotes array into results.
func (p *Provider) Search(ctx context.Context, query string) ([]quote.SearchResult, error) {
	reqURL := p.cfg.SearchEndpoint + "?q=" + url.QueryEscape(query) + "&quotesCount=5"

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("yahoo search: GET -> %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseSearch(body), nil
}

// ParseSearch maps the search payload's quotes array, preferring long names
// and skipping rows missing a symbol or name.
func ParseSearch(body []byte) []quote.SearchResult {
	var out []quote.SearchResult
	gjson.GetBytes(body, "quotes").ForEach(func(_, row gjson.Result) bool {
		symbol := row.Get("symbol").String()
		name := row.Get("longname").String()
		if name == "" {
			name = row.Get("shortname").String()
		}
		if name == "" {
			name = symbol
		}
		if symbol == "" || name == "" {
			return true
		}
		out = append(out, quote.SearchResult{
			Symbol: symbol,
			Name:   name,
			Kind:   quote.KindStock,
			Market: quote.MarketUS,
		})
		return true
	})
	return out
}

// FetchFund resolves a fund code through search, fetches its chart and
// reinterprets the quote as fund figures: price as net asset value and
// change percent as daily return.
func (p *Provider) FetchFund(ctx context.Context, code string) (quote.FundQuote, error) {
	symbol := code
	if rs, err := p.Search(ctx, code); err == nil && len(rs) > 0 {
		symbol = rs[0].Symbol
	}

	q, err := p.fetchChart(ctx, symbol)
	if err != nil {
		return quote.FundQuote{}, err
	}
	q.Symbol = code
	q.Kind = quote.KindFund

	return quote.FundQuote{
		Quote:            q,
		NetValue:         q.Price,
		AccumulatedValue: q.Price,
		DailyReturn:      q.ChangePercent,
	}, nil
}
