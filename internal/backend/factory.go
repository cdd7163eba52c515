package backend

import (
	"context"
	"fmt"
	"log/slog"

	"nestegg/internal/store"
	"nestegg/internal/store/file"
	"nestegg/internal/store/gcs"
	"nestegg/internal/store/memory"
	"nestegg/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
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
	case MemoryBackend:
		result, err = f.createMemoryBackend()
	case FileBackend:
		result, err = f.createFileBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case GCSBackend:
		result, err = f.createGCSBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := f.seedIfConfigured(ctx, config, result); err != nil {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
		return nil, err
	}

	return result, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{
		Store:   memory.New(),
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	kv, err := file.New(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file backend: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", config.DataDir)

	return &BackendResult{
		Store:   kv,
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	kv, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   kv,
		Cleanup: kv.Close,
	}, nil
}

func (f *DefaultFactory) createGCSBackend(ctx context.Context, config Config) (*BackendResult, error) {
	kv, err := gcs.New(ctx, config.GCSBucket, config.GCSPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCS backend: %w", err)
	}

	f.logger.Info("Initialized GCS backend",
		"bucket", config.GCSBucket,
		"prefix", config.GCSPrefix)

	return &BackendResult{
		Store:   kv,
		Cleanup: kv.Close,
	}, nil
}

// seedIfConfigured copies records from the seed directory into a freshly
// selected backend. The copy only happens while the backend is empty, so
// switching backends migrates history exactly once.
func (f *DefaultFactory) seedIfConfigured(ctx context.Context, config Config, result *BackendResult) error {
	if config.SeedFromDir == "" {
		return nil
	}
	src, err := file.New(config.SeedFromDir)
	if err != nil {
		return fmt.Errorf("open seed directory: %w", err)
	}
	copied, err := store.SeedIfEmpty(ctx, src, result.Store)
	if err != nil {
		return fmt.Errorf("seed backend from %s: %w", config.SeedFromDir, err)
	}
	if copied > 0 {
		f.logger.Info("Seeded backend from directory",
			"directory", config.SeedFromDir,
			"records", copied,
			"backend", config.Type.String())
	}
	return nil
}
