package fetcher

import (
	"context"
	"errors"
	"testing"

	"stocktracker/internal/provider"
	"stocktracker/internal/quote"
)

type fakeProvider struct {
	name   string
	quotes []quote.Quote
	err    error
	calls  [][]string
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Fetch(_ context.Context, symbols []string) ([]quote.Quote, error) {
	f.calls = append(f.calls, symbols)
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

type fakeFunds struct {
	funds map[string]quote.FundQuote
}

func (f *fakeFunds) FetchFund(_ context.Context, code string) (quote.FundQuote, error) {
	fq, ok := f.funds[code]
	if !ok {
		return quote.FundQuote{}, errors.New("no such fund")
	}
	return fq, nil
}

func cnQuote(sym string) quote.Quote {
	return quote.Quote{Symbol: sym, Price: 10, Market: quote.MarketCN, Kind: quote.KindStock}
}

func usQuote(sym string) quote.Quote {
	return quote.Quote{Symbol: sym, Price: 100, Market: quote.MarketUS, Kind: quote.KindStock}
}

func TestFetchQuotes_Partition(t *testing.T) {
	cn := &fakeProvider{name: "tencent", quotes: []quote.Quote{cnQuote("600000")}}
	us := &fakeProvider{name: "yahoo", quotes: []quote.Quote{usQuote("AAPL")}}
	f := New([]provider.Provider{cn}, us, nil)

	qs := f.FetchQuotes(context.Background(), []string{"600000", "AAPL", "00700", "not a symbol"})
	if len(qs) != 2 {
		t.Fatalf("want 2 quotes, got %d: %+v", len(qs), qs)
	}
	if len(cn.calls) != 1 || len(cn.calls[0]) != 1 || cn.calls[0][0] != "600000" {
		t.Fatalf("cn batch: %+v", cn.calls)
	}
	if len(us.calls) != 1 || us.calls[0][0] != "AAPL" {
		t.Fatalf("us batch: %+v", us.calls)
	}
}

func TestFetchQuotes_CNFallbackChain(t *testing.T) {
	primary := &fakeProvider{name: "tencent", err: errors.New("connection refused")}
	backup := &fakeProvider{name: "sina", quotes: []quote.Quote{cnQuote("600000")}}
	f := New([]provider.Provider{primary, backup}, nil, nil)

	qs := f.FetchQuotes(context.Background(), []string{"600000"})
	if len(qs) != 1 || qs[0].Symbol != "600000" {
		t.Fatalf("fallback result: %+v", qs)
	}
	if len(primary.calls) != 1 || len(backup.calls) != 1 {
		t.Fatalf("chain calls: primary=%d backup=%d", len(primary.calls), len(backup.calls))
	}
}

func TestFetchQuotes_EmptyCNAnswerDoesNotAdvanceChain(t *testing.T) {
	primary := &fakeProvider{name: "tencent"} // no error, no quotes
	backup := &fakeProvider{name: "sina", quotes: []quote.Quote{cnQuote("600000")}}
	f := New([]provider.Provider{primary, backup}, nil, nil)

	qs := f.FetchQuotes(context.Background(), []string{"600000"})
	if len(qs) != 0 {
		t.Fatalf("empty primary answer is final: %+v", qs)
	}
	if len(backup.calls) != 0 {
		t.Fatal("backup called despite primary answering")
	}
}

func TestFetchQuotes_CNUnreachableKeepsUSQuotes(t *testing.T) {
	primary := &fakeProvider{name: "tencent", err: errors.New("dial timeout")}
	backup := &fakeProvider{name: "sina", err: errors.New("dial timeout")}
	us := &fakeProvider{name: "yahoo", quotes: []quote.Quote{usQuote("AAPL")}}
	f := New([]provider.Provider{primary, backup}, us, nil)

	qs := f.FetchQuotes(context.Background(), []string{"600000", "AAPL"})
	if len(qs) != 1 || qs[0].Symbol != "AAPL" {
		t.Fatalf("want only the US quote, got %+v", qs)
	}
}

func TestFetchQuotes_NoSymbols(t *testing.T) {
	f := New(nil, nil, nil)
	if qs := f.FetchQuotes(context.Background(), nil); len(qs) != 0 {
		t.Fatalf("no symbols: %+v", qs)
	}
}

func TestFetchFunds_DropsFailures(t *testing.T) {
	funds := &fakeFunds{funds: map[string]quote.FundQuote{
		"011146": {Quote: quote.Quote{Symbol: "011146", Kind: quote.KindFund}, NetValue: 1.23},
	}}
	f := New(nil, nil, funds)

	fqs := f.FetchFunds(context.Background(), []string{"011146", "999999"})
	if len(fqs) != 1 || fqs[0].Symbol != "011146" {
		t.Fatalf("fund results: %+v", fqs)
	}
}
