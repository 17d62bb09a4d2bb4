package tencent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"stocktracker/internal/httpx"
	"stocktracker/internal/provider"
	"stocktracker/internal/quote"
)

// Config holds the injected endpoint settings for the primary CN provider.
type Config struct {
	Name     string
	Endpoint string // base URL, symbols are appended comma-separated
	Referer  string
}

// Provider fetches CN quotes from the Tencent realtime endpoint in a single
// batched request.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "tencent"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://qt.gtimg.cn/q="
	}
	if cfg.Referer == "" {
		cfg.Referer = "https://gu.qq.com"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch requests all codes in one batch. Any transport or non-2xx failure is
// returned so the caller can fall back to the backup CN provider. Response
// lines are paired positionally: the i-th non-empty line belongs to the i-th
// requested code. If the endpoint omits a line for an unresolvable code the
// remaining pairings shift; that is inherited upstream behavior and is not
// corrected here.
func (p *Provider) Fetch(ctx context.Context, codes []string) ([]quote.Quote, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	prefixed := make([]string, len(codes))
	for i, c := range codes {
		prefixed[i] = quote.ExchangeSymbol(c)
	}
	url := p.cfg.Endpoint + strings.Join(prefixed, ",")

	req, err := http.NewRequest(http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("tencent: GET %s -> %d", url, resp.StatusCode)
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

// lineRe matches the jsonp-ish assignment wrapper:
// v_sh600000="1~浦发银行~600000~9.44~-0.02~-0.21~22424864~..."
var lineRe = regexp.MustCompile(`v_[^=]+=["']([^"']+)["']`)

// ParseLine parses one Tencent response line into a normalized quote.
// Fields are tilde-delimited: name is field 1, price field 3, change field 4,
// change percent field 5, volume field 6. High and low sit in fields 33/34
// and default to the current price when absent. Previous close is derived as
// price minus change; the wire does not carry it. A line that fails the
// pattern or has fewer than 10 fields is dropped.
func ParseLine(line, code string) (quote.Quote, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return quote.Quote{}, false
	}
	fields := strings.Split(m[1], "~")
	if len(fields) < 10 {
		return quote.Quote{}, false
	}

	name := quote.CleanName(fields[1], code)
	price := parseF(fields[3])
	change := parseF(fields[4])
	changePercent := parseF(fields[5])
	volume := parseI(fields[6])

	high := price
	if len(fields) > 33 && fields[33] != "" {
		high = parseF(fields[33])
	}
	low := price
	if len(fields) > 34 && fields[34] != "" {
		low = parseF(fields[34])
	}

	return quote.Quote{
		Symbol:        code,
		Name:          name,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        volume,
		High:          high,
		Low:           low,
		PrevClose:     price - change,
		Timestamp:     time.Now().UnixMilli(),
		Kind:          quote.KindStock,
		Market:        quote.MarketCN,
	}, true
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
