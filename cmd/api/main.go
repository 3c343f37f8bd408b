// Package main is the entry point for the SceneSeek API server.
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
	"github.com/redis/go-redis/v9"

	"github.com/sceneseek/sceneseek/internal/api"
	"github.com/sceneseek/sceneseek/internal/audit"
	"github.com/sceneseek/sceneseek/internal/auth"
	"github.com/sceneseek/sceneseek/internal/catalog"
	"github.com/sceneseek/sceneseek/internal/chat"
	"github.com/sceneseek/sceneseek/internal/config"
	"github.com/sceneseek/sceneseek/internal/db"
	"github.com/sceneseek/sceneseek/internal/health"
	"github.com/sceneseek/sceneseek/internal/middleware"
	"github.com/sceneseek/sceneseek/internal/recommend"
	"github.com/sceneseek/sceneseek/internal/search"
	"github.com/sceneseek/sceneseek/internal/tracing"
)

const rateLimitCleanupInterval = time.Minute

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("SceneSeek API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
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
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	tracer, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "sceneseek-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
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
	checkers := map[string]health.Checker{
		"database": health.NewDBChecker(conn),
	}

	// Redis is optional; without it recommendations run uncached.
	var cache recommend.Cache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		cache = recommend.NewRedisCache(redisClient, recommend.DefaultCacheTTL, logger)
		checkers["redis"] = health.NewRedisChecker(redisClient)
	}

	weights, err := search.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, using default weights", "error", err)
	}

	pipeline := search.NewService(repo, weights, logger)
	recommender := recommend.NewService(pipeline, repo, cache, logger)

	// Chat is optional; without an API key the endpoint answers 503.
	var chatClient *chat.Client
	if cfg.OpenAIAPIKey != "" {
		chatClient, err = chat.NewClient(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
		if err != nil {
			logger.Error("failed to create chat client", "error", err)
			os.Exit(1)
		}
	}

	metrics := middleware.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	rateLimitStore := middleware.NewInMemoryRateLimitStore()
	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(rateLimitCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rateLimitStore.Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()

	current, previous := cfg.GetJWTSecrets()
	jwtService := auth.NewJWTService(current)
	if previous != "" {
		logger.Info("jwt secret rotation window active, accepting tokens signed with the previous secret")
		jwtService = auth.NewJWTServiceWithRotation(current, previous)
	}

	router := api.NewRouter(api.RouterConfig{
		Search:         api.NewSearchHandlers(pipeline, logger),
		Recommend:      api.NewRecommendHandlers(recommender, logger),
		Events:         api.NewEventHandlers(repo, logger).WithAudit(audit.NewLogger(logger)),
		Chat:           api.NewChatHandlers(chatClient, logger),
		Health:         api.NewHealthHandlers(checkers),
		JWT:            jwtService,
		Logger:         logger,
		Metrics:        metrics,
		MetricsHandler: promhttp.Handler(),
		RateLimitStore: rateLimitStore,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if err := tracer.Shutdown(ctx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
