package quote

import (
	"math"
	"regexp"
	"strings"
)

// Market identifies the exchange region a symbol trades on.
type Market string

const (
	MarketCN Market = "cn"
	MarketHK Market = "hk"
	MarketUS Market = "us"
)

// Kind distinguishes equities from funds.
type Kind string

const (
	KindStock Kind = "stock"
	KindFund  Kind = "fund"
)

// Quote is a single point-in-time snapshot for one instrument, normalized
// across providers. A new fetch produces a new Quote; values are never
// mutated in place.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	Open          float64 `json:"open,omitempty"`
	High          float64 `json:"high,omitempty"`
	Low           float64 `json:"low,omitempty"`
	PrevClose     float64 `json:"prevClose,omitempty"`
	Timestamp     int64   `json:"timestamp"` // epoch millis at capture
	Kind          Kind    `json:"type"`
	Market        Market  `json:"market"`
}

// FundQuote reinterprets a Quote's price and changePercent as net asset
// value and daily return. It has no identity of its own.
type FundQuote struct {
	Quote
	NetValue         float64 `json:"netValue"`
	AccumulatedValue float64 `json:"accumulatedValue"`
	DailyReturn      float64 `json:"dailyReturn"`
}

// SearchResult is an ephemeral per-search row; never cached.
type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Kind   Kind   `json:"type"`
	Market Market `json:"market"`
}

var (
	cnSymbolRe = regexp.MustCompile(`^\d{6}$`)
	usSymbolRe = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

// IsCNSymbol reports whether s looks like a mainland A-share code.
// Classification is a pure pattern match on the symbol string, not on any
// caller-declared market.
func IsCNSymbol(s string) bool { return cnSymbolRe.MatchString(s) }

// IsUSSymbol reports whether s looks like a US ticker (1-5 uppercase letters).
func IsUSSymbol(s string) bool { return usSymbolRe.MatchString(s) }

// ExchangeSymbol prefixes a bare 6-digit code with its exchange for the CN
// quote endpoints: Shanghai for codes starting 6 or 5, Shenzhen otherwise.
func ExchangeSymbol(code string) string {
	if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "5") {
		return "sh" + code
	}
	return "sz" + code
}

// Round2 rounds to two decimal places, the precision the CN wire formats
// carry for derived change values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
