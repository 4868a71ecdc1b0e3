package main

import (
	"context"
	"fmt"
	"os"

	"bookkeeper/internal/backend"
	"bookkeeper/internal/cli"
	"bookkeeper/internal/log"
	"bookkeeper/internal/presenter"
	"bookkeeper/internal/view/console"
)

func main() {
	if err := run(); err != nil {
		cli.Fatal(err)
	}
}

func run() error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	// Records go to stderr so they do not interleave with the console.
	logger, err := cli.SetupLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext()
	defer stop()
	ctx = log.NewContext(ctx, logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	view := console.New(os.Stdin, os.Stdout, console.WithLogger(logger))
	bk := presenter.New(result.Stores, view, cfg.BudgetWarnThreshold, presenter.WithLogger(logger))

	if err := seedCategories(ctx, bk, result, logger); err != nil {
		return err
	}

	logger.Info("Starting bookkeeper", log.FieldBackend, backendCfg.Type.String(), "view", cfg.View)
	if err := bk.Start(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}
	return nil
}

// seedCategories imports the seed tree when the category store is empty.
func seedCategories(ctx context.Context, bk *presenter.BookKeeper, result *backend.BackendResult, logger *log.Logger) error {
	if len(result.Seed) == 0 {
		return nil
	}
	existing, err := result.Stores.Categories.GetAll(ctx, nil)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Debug("Categories present, seed file ignored", log.FieldCount, len(existing))
		return nil
	}
	created, err := bk.ImportCategories(ctx, result.Seed)
	if err != nil {
		return fmt.Errorf("import categories: %w", err)
	}
	logger.Info("Imported categories", log.FieldOperation, log.OpSeed, log.FieldCount, len(created))
	return nil
}
