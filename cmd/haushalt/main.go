package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"haushalt/internal/amqp"
	"haushalt/internal/classify"
	"haushalt/internal/config"
	"haushalt/internal/core"
	"haushalt/internal/fixedcosts"
	apphttp "haushalt/internal/http"
	"haushalt/internal/ingest"
	applog "haushalt/internal/log"
	"haushalt/internal/store"
	"haushalt/internal/store/memory"
	"haushalt/internal/store/sqlite"
)

// appStore is everything the server needs from a backend.
type appStore interface {
	store.CategoryReader
	store.TransactionWriter
	store.TransactionReader
	store.TransactionLister
	store.SavingsGoalReader
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Classifier rulebook and detector keywords, built-ins unless overridden.
	rulebook := classify.Default()
	if cfg.RulebookFile != "" {
		var err error
		rulebook, err = classify.LoadFile(cfg.RulebookFile)
		if err != nil {
			logger.Error("Failed to load rulebook", "error", err, "path", cfg.RulebookFile)
			os.Exit(1)
		}
	}

	keywords := fixedcosts.DefaultKeywords()
	if cfg.KeywordsFile != "" {
		var err error
		keywords, err = fixedcosts.LoadKeywordsFile(cfg.KeywordsFile)
		if err != nil {
			logger.Error("Failed to load keywords", "error", err, "path", cfg.KeywordsFile)
			os.Exit(1)
		}
	}

	var st appStore
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize sqlite backend", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		st = repo
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		st = memory.New(core.DefaultCategories())
		logger.Info("Initialized memory backend")
	}

	// AMQP is optional; without it the worker falls back to its timer.
	var publisher apphttp.ImportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, imports will not be announced", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	session := ingest.NewSession(st, st, rulebook)
	detector := fixedcosts.NewDetector(keywords)

	srv := apphttp.NewServer(":"+cfg.Port, session, st, detector, publisher, cfg.WindowMonths)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting haushalt server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
