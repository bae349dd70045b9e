package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"indicator-dashboard/config"
	"indicator-dashboard/internal/api"
	"indicator-dashboard/internal/auth"
	"indicator-dashboard/internal/gateway"
	"indicator-dashboard/internal/logger"
	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/normalize"
	"indicator-dashboard/internal/notify"
	redisstore "indicator-dashboard/internal/store/redis"
	"indicator-dashboard/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[dashboard] %v", err)
	}
	logger.Init("dashboard", cfg.SlogLevel())
	log.Println("[dashboard] starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Catalog ──
	catalog := normalize.DefaultCatalog()
	if cfg.CatalogPath != "" {
		if catalog, err = normalize.LoadCatalog(cfg.CatalogPath); err != nil {
			log.Fatalf("[dashboard] catalog: %v", err)
		}
		log.Printf("[dashboard] loaded catalog %s (%d rows)", cfg.CatalogPath, len(catalog.Entries))
	}

	// ── Storage ──
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		log.Fatalf("[dashboard] data dir: %v", err)
	}
	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[dashboard] %v", err)
	}
	defer store.Close()

	rdb, err := redisstore.NewClient(ctx, redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("[dashboard] %v", err)
	}
	defer rdb.Close()

	// ── Metrics / health ──
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus()
	health.StartLivenessChecker(ctx, rdb, store.DB(), 10*time.Second)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, reg)
	metricsSrv.Start()

	// ── Alerts ──
	sinks := notify.Multi{notify.LogNotifier{}}
	if cfg.AlertWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(cfg.AlertWebhookURL))
	}
	if cfg.TelegramBotToken != "" {
		sinks = append(sinks, notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	alerts := notify.NewCrossDetector(sinks, 256)
	go alerts.Run(ctx)

	// ── Gateway ──
	hub := gateway.NewHub(gateway.HubConfig{
		Catalog:        catalog,
		RenderInterval: cfg.RenderInterval,
		Metrics:        m,
		Health:         health,
		Alerts:         alerts,
	})
	if levels, err := store.ListLevels(ctx); err != nil {
		log.Printf("[dashboard] WARNING: could not load manual levels: %v", err)
	} else {
		hub.SetLevels(levels)
		log.Printf("[dashboard] loaded %d manual levels", len(levels))
	}

	router := gateway.NewPubSubRouter(rdb, cfg.FeedChannel, hub)
	go func() {
		if err := router.Run(ctx); err != nil {
			log.Printf("[dashboard] feed router stopped: %v", err)
		}
	}()

	publisher := redisstore.NewPublisher(rdb, redisstore.PublisherConfig{
		FeedChannel:     cfg.FeedChannel,
		EmissionChannel: cfg.EmissionChannel,
	}, m)

	// ── HTTP ──
	r := newRouter(hub, api.Deps{
		Levels:        store,
		Settings:      store,
		Auth:          auth.NewAuthenticator(store, auth.NewSessions(cfg.SessionTTL)),
		Publisher:     publisher,
		Catalog:       catalog,
		Metrics:       m,
		EnforceAccess: cfg.EnforceAccess,
	})
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[dashboard] serving at http://localhost%s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[dashboard] server error: %v", err)
		}
	}()

	<-sigCh
	log.Println("[dashboard] shutting down...")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[dashboard] http shutdown: %v", err)
	}
	if err := metricsSrv.Stop(shutdownCtx); err != nil {
		log.Printf("[dashboard] metrics shutdown: %v", err)
	}
	if n := publisher.Pending(); n > 0 {
		log.Printf("[dashboard] WARNING: %d config publishes were never delivered", n)
	}
}
