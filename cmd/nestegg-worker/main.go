package main

import (
	"context"
	"os"
	"time"

	"nestegg/internal/amqp"
	"nestegg/internal/backend"
	"nestegg/internal/cli"
	applog "nestegg/internal/log"
	"nestegg/internal/store/file"
	"nestegg/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting nestegg-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}

	// The worker reads the same primary backend the server writes to.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker never seeds; that is the server's job.
	backendCfg.SeedFromDir = ""

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	primary, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize primary backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if primary.Cleanup != nil {
		defer func() { _ = primary.Cleanup() }()
	}

	// The replica is a directory of JSON records, usable directly as a seed
	// source for backend migration.
	replica, err := file.New(cfg.MirrorDir)
	if err != nil {
		logger.Error("Failed to open mirror directory", "error", err, "dir", cfg.MirrorDir)
		os.Exit(1)
	}

	// Initialize AMQP client for consuming messages
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirrorWorker := worker.NewMirrorWorker(primary.Store, replica)

	// On startup, catch up on anything missed while the worker was down.
	logger.Info("Performing startup mirror...")
	if err := mirrorWorker.MirrorAll(ctx); err != nil {
		logger.Error("Startup mirror failed", "error", err)
		// Don't exit - continue with normal operation
	}

	go func() {
		err := amqpClient.ConsumeSnapshotWritten(ctx, func(msg *amqp.SnapshotWrittenMessage) error {
			return mirrorWorker.HandleSnapshotEvent(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
			cancel()
		}
	}()

	// Periodic full mirror for any missed messages.
	ticker := time.NewTicker(cfg.MirrorInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mirrorWorker.MirrorAll(ctx); err != nil {
					logger.Error("Periodic mirror failed", "error", err)
				}
			}
		}
	}()

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		logger.Info("Shutting down worker...")
		cancel()
	})

	// A consumer failure cancels ctx; a shutdown signal cancels runCtx.
	select {
	case <-ctx.Done():
		logger.Info("Worker context cancelled")
	case <-runCtx.Done():
		cli.WaitForShutdown(runCtx, done)
		logger.Info("Worker shutdown complete")
	}
}
