package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocktracker/internal/cache"
	"stocktracker/internal/config"
	"stocktracker/internal/fetcher"
	"stocktracker/internal/httpx"
	"stocktracker/internal/notify"
	"stocktracker/internal/provider"
	"stocktracker/internal/provider/ratelimit"
	"stocktracker/internal/provider/sina"
	"stocktracker/internal/provider/tencent"
	"stocktracker/internal/provider/yahoo"
	"stocktracker/internal/scheduler"
	"stocktracker/internal/search"
	"stocktracker/internal/snapshot"
	"stocktracker/internal/watchlist"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
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

	cnPrimary := limited(tc, cfg.Tencent.MinRequestIntervalSec)
	cnFallback := limited(sn, cfg.Sina.MinRequestIntervalSec)
	usProvider := limited(yh, cfg.Yahoo.MinRequestIntervalSec)

	f := fetcher.New([]provider.Provider{cnPrimary, cnFallback}, usProvider, yh)
	s := &search.Searcher{Quotes: f, CN: sn, US: yh}
	c := cache.New(time.Duration(cfg.Cache.TTLSeconds)*time.Second, cfg.Cache.MaxItems)

	store := watchlist.NewStore(cfg.WatchlistPath)
	if !cfg.Notify.Enabled {
		if err := store.SetAlertsEnabled(false); err != nil {
			log.Printf("watchlist: disable alerts: %v", err)
		}
	}

	var snap *snapshot.Store
	if cfg.SnapshotPath != "" {
		snap, err = snapshot.Open(cfg.SnapshotPath)
		if err != nil {
			log.Fatalf("snapshot: %v", err)
		}
		defer snap.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := notify.NewQueue(notify.LogNotifier{}, store.AlertsEnabled,
		time.Duration(cfg.Notify.DelayMillis)*time.Millisecond)
	go queue.Run(ctx)

	sched := &scheduler.Scheduler{
		Watchlist: store,
		Quotes:    f,
		Cache:     c,
		Alerts:    queue,
		Interval:  time.Duration(cfg.Scheduler.IntervalSec) * time.Second,
	}
	if snap != nil {
		sched.Snapshot = snap
	}
	changes, err := store.Watch(ctx)
	if err != nil {
		log.Printf("watchlist: watch disabled: %v", err)
		changes = nil
	}
	go sched.Run(ctx, changes)

	app := &app{
		quotes:    f,
		searcher:  s,
		cache:     c,
		watchlist: store,
	}
	if snap != nil {
		app.snapshot = snap
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(app.routes())))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func limited(p provider.Provider, intervalSec int) provider.Provider {
	if intervalSec <= 0 {
		return p
	}
	return &ratelimit.MinInterval{P: p, Interval: time.Duration(intervalSec) * time.Second}
}
