// Package backend selects and wires a store backend from configuration.
package backend

import (
	"context"

	"nestegg/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store instance and optional cleanup function
type BackendResult struct {
	Store   store.KV
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// File backend specific
	DataDir string

	// SQLite specific
	SQLiteDBPath string

	// GCS specific
	GCSBucket string
	GCSPrefix string

	// Optional seed source: a directory of month-record JSON files copied
	// into the backend when the backend holds no records yet.
	SeedFromDir string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	GCSBackend    BackendType = "gcs"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, GCSBackend:
		return true
	default:
		return false
	}
}
