package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"haushalt/internal/amqp"
	"haushalt/internal/config"
	"haushalt/internal/fixedcosts"
	applog "haushalt/internal/log"
	"haushalt/internal/store/sqlite"
	"haushalt/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting fixkosten-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
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

	// The worker reads the shared sqlite database regardless of what the
	// server's DATA_BACKEND says; a memory-backed server has nothing for a
	// separate process to see.
	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize sqlite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	snapshotWorker := worker.NewSnapshotWorker(repo, fixedcosts.NewDetector(keywords), cfg.WindowMonths)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Periodic refresh keeps the snapshot fresh even without imports.
	g.Go(func() error {
		return snapshotWorker.RunPeriodic(ctx, cfg.SnapshotInterval)
	})

	// Message-driven refresh, when a broker is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeImportCompleted(ctx, func(msg *amqp.ImportCompletedMessage) error {
				return snapshotWorker.HandleImportCompleted(ctx, msg)
			})
		})
	} else {
		logger.Info("AMQP disabled, relying on periodic refresh only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
