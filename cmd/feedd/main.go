// Package main is the entry point for the live feed consumer daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sceneseek/sceneseek/internal/catalog"
	"github.com/sceneseek/sceneseek/internal/config"
	"github.com/sceneseek/sceneseek/internal/db"
	"github.com/sceneseek/sceneseek/internal/feed"
	"github.com/sceneseek/sceneseek/internal/middleware"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("SceneSeek Feed Consumer")
		fmt.Println()
		fmt.Println("Usage: feedd [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if cfg.FeedURL == "" {
		fmt.Fprintln(os.Stderr, "feedd: FEED_URL is required")
		os.Exit(2)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Ping(context.Background(), conn); err != nil {
		logger.Warn("database not reachable at startup", "error", err)
	}

	repo := catalog.NewPostgresRepository(conn, logger)

	metrics := feed.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	handler := feed.NewHandler(repo, metrics, logger)
	client, err := feed.NewClient(feed.DefaultConfig(cfg.FeedURL), handler.Handle, logger)
	if err != nil {
		logger.Error("invalid feed configuration", "error", err)
		os.Exit(1)
	}

	// Small sidecar server for probes and metrics scraping.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if client.IsConnected() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"disconnected"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	sidecar := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting sidecar server", "port", cfg.Port)
		if err := sidecar.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("sidecar server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("connecting to feed", "url", cfg.FeedURL)
	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("feed consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sidecar.Shutdown(shutdownCtx); err != nil {
		logger.Error("sidecar shutdown failed", "error", err)
	}
	logger.Info("feed consumer stopped")
}
