package backend

import (
	"context"
	"slices"

	"bookkeeper/internal/core"
	"bookkeeper/internal/services"
)

// CleanupFunc releases the resources held by a backend
type CleanupFunc func() error

// BackendResult contains the stores and optional cleanup function
type BackendResult struct {
	Stores  services.Stores
	Cleanup CleanupFunc

	// Seed is the category tree read from Config.SeedFile, if any. It is
	// meant for an empty category store.
	Seed []core.TreePair
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the stores based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional indented category tree
	SeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
