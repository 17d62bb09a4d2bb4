package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"stocktracker/internal/config"
	"stocktracker/internal/fetcher"
	"stocktracker/internal/httpx"
	"stocktracker/internal/provider"
	"stocktracker/internal/provider/sina"
	"stocktracker/internal/provider/tencent"
	"stocktracker/internal/provider/yahoo"
	"stocktracker/internal/search"
)

// fetch is a one-shot CLI: resolve quotes, funds or a search query and
// print the JSON answer to stdout.
func main() {
	var symbolsCSV string
	var fundsCSV string
	var query string
	var timeout int
	var configPath string

	flag.StringVar(&symbolsCSV, "symbols", "", "comma-separated stock symbols (600000,AAPL)")
	flag.StringVar(&fundsCSV, "funds", "", "comma-separated fund codes")
	flag.StringVar(&query, "search", "", "free-text search query")
	flag.IntVar(&timeout, "timeout", 15, "request timeout seconds")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	tc := tencent.New(tencent.Config{
		Name:     "tencent",
		Endpoint: cfg.Tencent.Endpoint,
		Referer:  cfg.Tencent.Referer,
	}, httpClient)
	sn := sina.New(sina.Config{
		Name:            "sina",
		Endpoint:        cfg.Sina.Endpoint,
		SuggestEndpoint: cfg.Sina.SuggestEndpoint,
		Referer:         cfg.Sina.Referer,
	}, httpClient)
	yh := yahoo.New(yahoo.Config{
		Name:           "yahoo",
		ChartEndpoint:  cfg.Yahoo.ChartEndpoint,
		SearchEndpoint: cfg.Yahoo.SearchEndpoint,
	}, httpClient)

	f := fetcher.New([]provider.Provider{tc, sn}, yh, yh)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	switch {
	case query != "":
		s := &search.Searcher{Quotes: f, CN: sn, US: yh}
		if err := enc.Encode(s.Search(ctx, query)); err != nil {
			log.Fatalf("encode: %v", err)
		}
	case fundsCSV != "":
		if err := enc.Encode(f.FetchFunds(ctx, splitCSV(fundsCSV))); err != nil {
			log.Fatalf("encode: %v", err)
		}
	case symbolsCSV != "":
		if err := enc.Encode(f.FetchQuotes(ctx, splitCSV(symbolsCSV))); err != nil {
			log.Fatalf("encode: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
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
