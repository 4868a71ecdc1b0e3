// Package repository defines the storage contract shared by every entity
// kind and the static schema descriptor the backends build tables from.
//
// A record is persisted once its primary key is non-zero. Add assigns the
// key, Update and Delete require it to exist, Get reports absence without
// an error.
package repository

import (
	"context"
	"errors"
)

// PKField is the reserved name of the identity column. It may be used as a
// GetAll filter key.
const PKField = "pk"

var (
	ErrAlreadyPersisted = errors.New("record already has a primary key")
	ErrNotFound         = errors.New("record not found")
	ErrInvalidSchema    = errors.New("invalid schema")
	ErrUnknownField     = errors.New("unknown field")
)

// Where is a conjunction of field equality conditions. A nil value matches
// a NULL (zero reference) in nullable integer fields.
type Where map[string]any

// Repository stores records of one entity type.
type Repository[T any] interface {
	// Add persists obj, writes the new key into it and returns the key.
	Add(ctx context.Context, obj *T) (int64, error)
	// Get returns the record and true, or the zero value and false when
	// no record has that key.
	Get(ctx context.Context, pk int64) (T, bool, error)
	// GetAll returns every record matching all conditions in where,
	// ordered by primary key. A nil where returns every record.
	GetAll(ctx context.Context, where Where) ([]T, error)
	// Update replaces every field except the key.
	Update(ctx context.Context, obj *T) error
	Delete(ctx context.Context, pk int64) error
}

// Transactor runs fn so that either all store writes made through the
// context it receives are kept, or none are.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
