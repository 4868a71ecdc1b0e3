package repository

import (
	"fmt"
	"strings"
	"time"
)

// FieldType is the semantic type of a stored field.
type FieldType int

const (
	Integer FieldType = iota + 1
	Float
	Text
	Timestamp
	Duration
)

func (t FieldType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Text:
		return "text"
	case Timestamp:
		return "timestamp"
	case Duration:
		return "duration"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// IsValid reports whether t is one of the supported field types.
func (t FieldType) IsValid() bool {
	switch t {
	case Integer, Float, Text, Timestamp, Duration:
		return true
	default:
		return false
	}
}

// Field describes one non-identity field of T.
//
// Get returns the canonical Go value for the type: int64, float64, string,
// time.Time or time.Duration. Set receives the same. For a Nullable Integer
// field the zero value is stored as NULL and NULL is read back as zero.
type Field[T any] struct {
	Name     string
	Type     FieldType
	Nullable bool
	Get      func(T) any
	Set      func(*T, any)
}

// Schema is the static descriptor of an entity type.
type Schema[T any] struct {
	// Name identifies the entity; the table name is its lower-case form.
	Name   string
	Fields []Field[T]
	PK     func(T) int64
	SetPK  func(*T, int64)
}

// Table returns the case-normalized table name.
func (s Schema[T]) Table() string {
	return strings.ToLower(s.Name)
}

// Validate checks the descriptor is usable by a store.
func (s Schema[T]) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: empty entity name", ErrInvalidSchema)
	}
	if s.PK == nil || s.SetPK == nil {
		return fmt.Errorf("%w: %s has no primary key accessors", ErrInvalidSchema, s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: %s must have at least one field besides %s", ErrInvalidSchema, s.Name, PKField)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		name := strings.ToLower(f.Name)
		if name == "" || name == PKField {
			return fmt.Errorf("%w: %s has a field named %q", ErrInvalidSchema, s.Name, f.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s declares %q twice", ErrInvalidSchema, s.Name, f.Name)
		}
		seen[name] = struct{}{}
		if !f.Type.IsValid() {
			return fmt.Errorf("%w: field %s.%s has unsupported type %s", ErrInvalidSchema, s.Name, f.Name, f.Type)
		}
		if f.Nullable && f.Type != Integer {
			return fmt.Errorf("%w: field %s.%s: only integer fields may be nullable", ErrInvalidSchema, s.Name, f.Name)
		}
		if f.Get == nil || f.Set == nil {
			return fmt.Errorf("%w: field %s.%s has no accessors", ErrInvalidSchema, s.Name, f.Name)
		}
	}
	return nil
}

// Field looks a field up by name.
func (s Schema[T]) Field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Normalize converts v to the canonical Go value of type t so that values
// coming from callers (int, int32, float32, nil, ...) compare equal to
// values produced by Field.Get.
func Normalize(t FieldType, nullable bool, v any) (any, error) {
	if v == nil {
		if nullable {
			return int64(0), nil
		}
		return nil, fmt.Errorf("nil is not a valid %s value", t)
	}
	switch t {
	case Integer:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case uint8:
			return int64(n), nil
		case uint16:
			return int64(n), nil
		case uint32:
			return int64(n), nil
		}
	case Float:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
		if s, ok := v.(fmt.Stringer); ok {
			return s.String(), nil
		}
	case Timestamp:
		if ts, ok := v.(time.Time); ok {
			return ts, nil
		}
	case Duration:
		if d, ok := v.(time.Duration); ok {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%T is not a valid %s value", v, t)
}

// Equal compares two normalized values of type t.
func Equal(t FieldType, a, b any) bool {
	if t == Timestamp {
		at, aok := a.(time.Time)
		bt, bok := b.(time.Time)
		return aok && bok && at.Equal(bt)
	}
	return a == b
}
