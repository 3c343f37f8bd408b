// Package main is the entry point for the CSV batch ingester.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sceneseek/sceneseek/internal/catalog"
	"github.com/sceneseek/sceneseek/internal/db"
	"github.com/sceneseek/sceneseek/internal/ingest"
	"github.com/sceneseek/sceneseek/internal/middleware"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	file := flag.String("file", "", "path to the CSV export to ingest (required)")
	dbURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.Parse()

	if *help {
		fmt.Println("SceneSeek CSV Ingester")
		fmt.Println()
		fmt.Println("Usage: ingest -file events.csv [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	env := os.Getenv("SCENESEEK_ENV")
	if env == "" {
		env = "development"
	}
	logger := middleware.NewLogger(env)
	slog.SetDefault(logger)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "ingest: -file is required")
		os.Exit(2)
	}
	if *dbURL == "" {
		fmt.Fprintln(os.Stderr, "ingest: DATABASE_URL or -database-url is required")
		os.Exit(2)
	}

	conn, err := db.Open(*dbURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Ping(context.Background(), conn); err != nil {
		logger.Error("database not reachable", "error", err)
		os.Exit(1)
	}

	repo := catalog.NewPostgresRepository(conn, logger)
	svc := ingest.NewService([]ingest.Source{ingest.NewCSVSource(*file)}, repo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	count, err := svc.IngestAll(ctx)
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	repo.Stats().LogSummary(logger)
	logger.Info("ingest finished", "file", *file, "events", count)
}
