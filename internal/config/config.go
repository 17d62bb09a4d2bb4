package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Tencent struct {
	Endpoint              string `json:"endpoint"`
	Referer               string `json:"referer"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
}

type Sina struct {
	Endpoint              string `json:"endpoint"`
	SuggestEndpoint       string `json:"suggest_endpoint"`
	Referer               string `json:"referer"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
}

type Yahoo struct {
	ChartEndpoint         string `json:"chart_endpoint"`
	SearchEndpoint        string `json:"search_endpoint"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
}

type Cache struct {
	TTLSeconds int `json:"ttl_sec"`
	MaxItems   int `json:"max_items"`
}

type Scheduler struct {
	IntervalSec int `json:"interval_sec"`
}

type Notify struct {
	DelayMillis int  `json:"delay_ms"`
	Enabled     bool `json:"enabled"`
}

type Config struct {
	Server        Server    `json:"server"`
	Tencent       Tencent   `json:"tencent"`
	Sina          Sina      `json:"sina"`
	Yahoo         Yahoo     `json:"yahoo"`
	Cache         Cache     `json:"cache"`
	Scheduler     Scheduler `json:"scheduler"`
	Notify        Notify    `json:"notify"`
	WatchlistPath string    `json:"watchlist_path"`
	SnapshotPath  string    `json:"snapshot_path"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Tencent: Tencent{
			Endpoint: "https://qt.gtimg.cn/q=",
			Referer:  "https://gu.qq.com",
		},
		Sina: Sina{
			Endpoint:        "https://hq.sinajs.cn",
			SuggestEndpoint: "https://suggest3.sinajs.cn/suggest/type=11,12,13,14,15&key=",
			Referer:         "https://finance.sina.com.cn",
		},
		Yahoo: Yahoo{
			ChartEndpoint:  "https://query1.finance.yahoo.com/v8/finance/chart",
			SearchEndpoint: "https://query1.finance.yahoo.com/v1/finance/search",
		},
		Cache:         Cache{TTLSeconds: 300, MaxItems: 1024},
		Scheduler:     Scheduler{IntervalSec: 30},
		Notify:        Notify{DelayMillis: 1000, Enabled: true},
		WatchlistPath: "watchlist.json",
		SnapshotPath:  "snapshot.db",
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("TENCENT_ENDPOINT"); v != "" {
		cfg.Tencent.Endpoint = v
	}
	if v := os.Getenv("SINA_ENDPOINT"); v != "" {
		cfg.Sina.Endpoint = v
	}
	if v := os.Getenv("SINA_SUGGEST_ENDPOINT"); v != "" {
		cfg.Sina.SuggestEndpoint = v
	}
	if v := os.Getenv("YAHOO_CHART_ENDPOINT"); v != "" {
		cfg.Yahoo.ChartEndpoint = v
	}
	if v := os.Getenv("YAHOO_SEARCH_ENDPOINT"); v != "" {
		cfg.Yahoo.SearchEndpoint = v
	}
	if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Cache.TTLSeconds = x
		}
	}
	if v := os.Getenv("UPDATE_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Scheduler.IntervalSec = x
		}
	}
	if v := os.Getenv("NOTIFY_DELAY_MS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Notify.DelayMillis = x
		}
	}
	if v := os.Getenv("NOTIFY_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Notify.Enabled = true
		case "0", "false", "no", "n":
			cfg.Notify.Enabled = false
		}
	}
	if v := os.Getenv("WATCHLIST_PATH"); v != "" {
		cfg.WatchlistPath = v
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
}
