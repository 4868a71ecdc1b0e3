// Package memory implements a volatile repository.Repository backed by
// process memory. Contents are lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"bookkeeper/internal/repository"
)

type Store[T any] struct {
	mu     sync.Mutex
	schema repository.Schema[T]
	items  map[int64]T
	nextPK int64
}

// New returns an empty store for the entity described by schema.
func New[T any](schema repository.Schema[T]) (*Store[T], error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Store[T]{
		schema: schema,
		items:  make(map[int64]T),
		nextPK: 1,
	}, nil
}

// Add implements repository.Repository.
func (s *Store[T]) Add(_ context.Context, obj *T) (int64, error) {
	if pk := s.schema.PK(*obj); pk != 0 {
		return 0, fmt.Errorf("add %s %d: %w", s.schema.Table(), pk, repository.ErrAlreadyPersisted)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := s.nextPK
	s.nextPK++
	s.schema.SetPK(obj, pk)
	s.items[pk] = *obj
	return pk, nil
}

// Get implements repository.Repository.
func (s *Store[T]) Get(_ context.Context, pk int64) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.items[pk]
	return obj, ok, nil
}

// GetAll implements repository.Repository.
func (s *Store[T]) GetAll(_ context.Context, where repository.Where) ([]T, error) {
	match, err := s.matcher(where)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]int64, 0, len(s.items))
	for pk := range s.items {
		keys = append(keys, pk)
	}
	slices.Sort(keys)
	out := make([]T, 0, len(keys))
	for _, pk := range keys {
		if obj := s.items[pk]; match(obj) {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Update implements repository.Repository.
func (s *Store[T]) Update(_ context.Context, obj *T) error {
	pk := s.schema.PK(*obj)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[pk]; !ok {
		return fmt.Errorf("update %s %d: %w", s.schema.Table(), pk, repository.ErrNotFound)
	}
	s.items[pk] = *obj
	return nil
}

// Delete implements repository.Repository.
func (s *Store[T]) Delete(_ context.Context, pk int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[pk]; !ok {
		return fmt.Errorf("delete %s %d: %w", s.schema.Table(), pk, repository.ErrNotFound)
	}
	delete(s.items, pk)
	return nil
}

// Snapshot captures the current contents and returns a function that puts
// them back.
func (s *Store[T]) Snapshot() (restore func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make(map[int64]T, len(s.items))
	for pk, obj := range s.items {
		items[pk] = obj
	}
	nextPK := s.nextPK
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.items = items
		s.nextPK = nextPK
	}
}

type condition[T any] struct {
	field repository.Field[T]
	want  any
}

func (s *Store[T]) matcher(where repository.Where) (func(T) bool, error) {
	var (
		conds  []condition[T]
		wantPK *int64
	)
	for name, value := range where {
		if name == repository.PKField {
			v, err := repository.Normalize(repository.Integer, false, value)
			if err != nil {
				return nil, fmt.Errorf("filter %s.%s: %w", s.schema.Table(), name, err)
			}
			pk := v.(int64)
			wantPK = &pk
			continue
		}
		f, ok := s.schema.Field(name)
		if !ok {
			return nil, fmt.Errorf("filter %s.%s: %w", s.schema.Table(), name, repository.ErrUnknownField)
		}
		v, err := repository.Normalize(f.Type, f.Nullable, value)
		if err != nil {
			return nil, fmt.Errorf("filter %s.%s: %w", s.schema.Table(), name, err)
		}
		conds = append(conds, condition[T]{field: f, want: v})
	}
	return func(obj T) bool {
		if wantPK != nil && s.schema.PK(obj) != *wantPK {
			return false
		}
		for _, c := range conds {
			if !repository.Equal(c.field.Type, c.field.Get(obj), c.want) {
				return false
			}
		}
		return true
	}, nil
}
