package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"stocktracker/internal/quote"
	"stocktracker/internal/watchlist"
)

type quoteSource interface {
	FetchQuotes(ctx context.Context, symbols []string) []quote.Quote
	FetchFunds(ctx context.Context, codes []string) []quote.FundQuote
}

type textSearcher interface {
	Search(ctx context.Context, query string) []quote.SearchResult
}

type quoteCache interface {
	Get(symbol string) (quote.Quote, bool)
	Put(symbol string, q quote.Quote)
}

type watchlistStore interface {
	Load() ([]watchlist.Item, error)
	Save(items []watchlist.Item) error
}

type snapshotReader interface {
	Load(ctx context.Context) ([]quote.Quote, int64, error)
}

type app struct {
	quotes    quoteSource
	searcher  textSearcher
	cache     quoteCache
	watchlist watchlistStore
	snapshot  snapshotReader // nil when persistence is disabled
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/quotes", a.handleQuotes)
	mux.HandleFunc("/api/funds", a.handleFunds)
	mux.HandleFunc("/api/search", a.handleSearch)
	mux.HandleFunc("/api/watchlist", a.handleWatchlist)
	mux.HandleFunc("/api/snapshot", a.handleSnapshot)
	return mux
}

type quotesResponse struct {
	Quotes []quote.Quote `json:"quotes"`
}

// handleQuotes serves /api/quotes?symbols=600000,AAPL. Cached entries are
// served as-is; only the misses go to the network.
func (a *app) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	symbols := splitCSV(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		http.Error(w, "missing symbols query param", http.StatusBadRequest)
		return
	}
	if len(symbols) > 100 {
		http.Error(w, "too many symbols (max 100)", http.StatusBadRequest)
		return
	}

	var out []quote.Quote
	var misses []string
	for _, s := range symbols {
		if q, ok := a.cache.Get(s); ok {
			out = append(out, q)
			continue
		}
		misses = append(misses, s)
	}
	if len(misses) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()
		fetched := a.quotes.FetchQuotes(ctx, misses)
		for _, q := range fetched {
			a.cache.Put(q.Symbol, q)
		}
		out = append(out, fetched...)
	}
	writeJSON(w, quotesResponse{Quotes: out})
}

type fundsResponse struct {
	Funds []quote.FundQuote `json:"funds"`
}

func (a *app) handleFunds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	codes := splitCSV(r.URL.Query().Get("codes"))
	if len(codes) == 0 {
		http.Error(w, "missing codes query param", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	writeJSON(w, fundsResponse{Funds: a.quotes.FetchFunds(ctx, codes)})
}

type searchResponse struct {
	Results []quote.SearchResult `json:"results"`
}

func (a *app) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "missing q query param", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	writeJSON(w, searchResponse{Results: a.searcher.Search(ctx, q)})
}

type watchlistResponse struct {
	Items []watchlist.Item `json:"items"`
}

func (a *app) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.watchlist.Load()
		if err != nil {
			http.Error(w, "watchlist unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, watchlistResponse{Items: items})
	case http.MethodPut:
		var body watchlistResponse
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if err := a.watchlist.Save(body.Items); err != nil {
			http.Error(w, "watchlist save failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, watchlistResponse{Items: body.Items})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type snapshotResponse struct {
	Quotes    []quote.Quote `json:"quotes"`
	UpdatedAt int64         `json:"updated_at"`
}

func (a *app) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if a.snapshot == nil {
		http.Error(w, "snapshot persistence disabled", http.StatusNotFound)
		return
	}
	quotes, at, err := a.snapshot.Load(r.Context())
	if err != nil {
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, snapshotResponse{Quotes: quotes, UpdatedAt: at})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses the response when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// limitBody caps request body size for the watchlist PUT.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
