// Package backend builds the expense, category and budget stores for the
// configured storage backend.
package backend

import (
	"context"
	"fmt"
	"os"

	"bookkeeper/internal/core"
	"bookkeeper/internal/log"
	"bookkeeper/internal/repository/memory"
	"bookkeeper/internal/repository/sqlite"
	"bookkeeper/internal/services"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.SeedFile != "" {
		seed, err := readSeed(config.SeedFile)
		if err != nil {
			if result.Cleanup != nil {
				_ = result.Cleanup()
			}
			return nil, err
		}
		result.Seed = seed
		f.logger.InfoContext(ctx, "Read category seed file", "path", config.SeedFile, log.FieldCount, len(seed))
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	db, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database: %w", err)
	}

	stores, err := sqliteStores(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize SQLite repositories: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", log.FieldDBPath, db.Path())

	return &BackendResult{
		Stores:  stores,
		Cleanup: db.Close,
	}, nil
}

func sqliteStores(ctx context.Context, db *sqlite.DB) (services.Stores, error) {
	expenses, err := sqlite.NewRepository(ctx, db, core.ExpenseSchema())
	if err != nil {
		return services.Stores{}, err
	}
	categories, err := sqlite.NewRepository(ctx, db, core.CategorySchema())
	if err != nil {
		return services.Stores{}, err
	}
	budgets, err := sqlite.NewRepository(ctx, db, core.BudgetSchema())
	if err != nil {
		return services.Stores{}, err
	}
	return services.Stores{
		Expenses:   expenses,
		Categories: categories,
		Budgets:    budgets,
		Tx:         db,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	expenses, err := memory.New(core.ExpenseSchema())
	if err != nil {
		return nil, err
	}
	categories, err := memory.New(core.CategorySchema())
	if err != nil {
		return nil, err
	}
	budgets, err := memory.New(core.BudgetSchema())
	if err != nil {
		return nil, err
	}

	f.logger.InfoContext(ctx, "Initialized memory backend")

	return &BackendResult{
		Stores: services.Stores{
			Expenses:   expenses,
			Categories: categories,
			Budgets:    budgets,
			Tx:         memory.NewTransactor(expenses, categories, budgets),
		},
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

func readSeed(path string) ([]core.TreePair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open category seed file: %w", err)
	}
	defer f.Close()

	pairs, err := core.ReadTree(f)
	if err != nil {
		return nil, fmt.Errorf("parse category seed file %s: %w", path, err)
	}
	return pairs, nil
}
