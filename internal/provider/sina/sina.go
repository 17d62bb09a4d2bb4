package sina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"stocktracker/internal/httpx"
	"stocktracker/internal/provider"
	"stocktracker/internal/quote"
)

// Config holds the injected endpoint settings for the backup CN provider and
// its search suggest endpoint.
type Config struct {
	Name            string
	Endpoint        string // quote list base, e.g. https://hq.sinajs.cn
	SuggestEndpoint string // search suggest base
	Referer         string
}

// Provider fetches CN quotes from the Sina realtime endpoint. It is the
// fallback when the primary CN provider fails, and also serves the CN side
// of free-text search.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "sina"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://hq.sinajs.cn"
	}
	if cfg.SuggestEndpoint == "" {
		cfg.SuggestEndpoint = "https://suggest3.sinajs.cn/suggest/type=11,12,13,14,15&key="
	}
	if cfg.Referer == "" {
		cfg.Referer = "https://finance.sina.com.cn"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch requests all codes in one batch, with the same positional
// line-to-symbol pairing caveat as the primary provider.
func (p *Provider) Fetch(ctx context.Context, codes []string) ([]quote.Quote, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	prefixed := make([]string, len(codes))
	for i, c := range codes {
		prefixed[i] = quote.ExchangeSymbol(c)
	}
	reqURL := p.cfg.Endpoint + "/list=" + strings.Join(prefixed, ",")

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", p.cfg.Referer)
	req.Header.Set("Accept-Charset", "utf-8, gbk, gb2312")

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sina: GET %s -> %d", reqURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	text := provider.DecodeGBK(raw)

	var out []quote.Quote
	i := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if i >= len(codes) {
			break
		}
		if q, ok := ParseLine(line, codes[i]); ok {
			out = append(out, q)
		}
		i++
	}
	return out, nil
}

// lineRe matches: var hq_str_sh600000="浦发银行,9.44,9.46,-0.02,..."
var lineRe = regexp.MustCompile(`var hq_str_[^=]+=["']([^"']+)["']`)

// ParseLine parses one Sina response line. Fields are comma-delimited: name
// field 0, previous close field 2, price field 3, high field 4, low field 5,
// volume field 8. The wire carries no change columns, so change and change
// percent are computed from price and previous close and rounded to two
// decimal places. A line failing the pattern or with fewer than 10 fields is
// dropped.
func ParseLine(line, code string) (quote.Quote, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return quote.Quote{}, false
	}
	fields := strings.Split(m[1], ",")
	if len(fields) < 10 {
		return quote.Quote{}, false
	}

	name := quote.CleanName(fields[0], code)
	price := parseF(fields[3])
	prevClose := parseF(fields[2])
	change := price - prevClose
	changePercent := 0.0
	if prevClose > 0 {
		changePercent = change / prevClose * 100
	}
	volume := parseI(fields[8])

	high := parseF(fields[4])
	if high == 0 {
		high = price
	}
	low := parseF(fields[5])
	if low == 0 {
		low = price
	}

	return quote.Quote{
		Symbol:        code,
		Name:          name,
		Price:         price,
		Change:        quote.Round2(change),
		ChangePercent: quote.Round2(changePercent),
		Volume:        volume,
		High:          high,
		Low:           low,
		PrevClose:     prevClose,
		Timestamp:     time.Now().UnixMilli(),
		Kind:          quote.KindStock,
		Market:        quote.MarketCN,
	}, true
}

var suggestRe = regexp.MustCompile(`var suggestvalue="([^"]+)"`)

// Search queries the suggest endpoint and returns CN stock matches, capped
// at 10. Failures degrade to an error the caller treats as an empty
// contribution.
func (p *Provider) Search(ctx context.Context, query string) ([]quote.SearchResult, error) {
	reqURL := p.cfg.SuggestEndpoint + url.QueryEscape(query)

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", p.cfg.Referer)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sina suggest: GET -> %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseSuggest(provider.DecodeGBK(raw)), nil
}

// ParseSuggest parses the suggest payload:
// var suggestvalue="code,name,type,...|code,name,type,..."
// Only type 11 (stocks) rows are kept; indexes, funds, bonds and futures are
// filtered out. At most 10 rows are returned.
func ParseSuggest(text string) []quote.SearchResult {
	m := suggestRe.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return nil
	}

	var out []quote.SearchResult
	for _, item := range strings.Split(m[1], "|") {
		fields := strings.Split(item, ",")
		if len(fields) < 3 {
			continue
		}
		if fields[2] != "11" {
			continue
		}
		out = append(out, quote.SearchResult{
			Symbol: fields[0],
			Name:   fields[1],
			Kind:   quote.KindStock,
			Market: quote.MarketCN,
		})
		if len(out) == 10 {
			break
		}
	}
	return out
}

func parseF(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseI(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
