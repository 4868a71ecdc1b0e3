package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"bookkeeper/internal/log"
	"bookkeeper/internal/repository"
)

// Repository stores one entity type in its own table.
type Repository[T any] struct {
	db     *DB
	schema repository.Schema[T]
	table  string
}

// NewRepository binds schema to db, creating the table if it does not exist
// and adding a column for every schema field the table lacks. Existing
// columns are never dropped or altered.
func NewRepository[T any](ctx context.Context, db *DB, schema repository.Schema[T]) (*Repository[T], error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	r := &Repository[T]{db: db, schema: schema, table: schema.Table()}
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository[T]) ensureTable(ctx context.Context) error {
	q := r.db.conn(ctx)
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s INTEGER PRIMARY KEY NOT NULL)",
		quote(r.table), quote(repository.PKField))
	if _, err := q.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}

	existing, err := r.columns(ctx)
	if err != nil {
		return err
	}
	for _, f := range r.schema.Fields {
		if _, ok := existing[strings.ToLower(f.Name)]; ok {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quote(r.table), quote(f.Name), columnType(f.Type))
		if _, err := q.ExecContext(ctx, alter); err != nil {
			// Another repository on the same file may have won the race.
			if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
				continue
			}
			return fmt.Errorf("add column %s.%s: %w", r.table, f.Name, err)
		}
		storageLogger(ctx).InfoContext(ctx, "Added column", log.FieldTable, r.table, "column", f.Name, "type", f.Type.String())
	}
	return nil
}

func (r *Repository[T]) columns(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(r.table)))
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", r.table, err)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", r.table, err)
		}
		cols[strings.ToLower(name)] = struct{}{}
	}
	return cols, rows.Err()
}

// Add implements repository.Repository.
func (r *Repository[T]) Add(ctx context.Context, obj *T) (int64, error) {
	if pk := r.schema.PK(*obj); pk != 0 {
		return 0, fmt.Errorf("add %s %d: %w", r.table, pk, repository.ErrAlreadyPersisted)
	}

	names := make([]string, 0, len(r.schema.Fields))
	marks := make([]string, 0, len(r.schema.Fields))
	args, err := r.values(*obj)
	if err != nil {
		return 0, err
	}
	for _, f := range r.schema.Fields {
		names = append(names, quote(f.Name))
		marks = append(marks, "?")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(r.table), strings.Join(names, ", "), strings.Join(marks, ", "))

	res, err := r.db.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", r.table, err)
	}
	pk, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", r.table, err)
	}
	r.schema.SetPK(obj, pk)

	storageLogger(ctx).DebugContext(ctx, "Record added", log.NewFields().WithOperation(log.OpCreate).WithRecord(r.table, pk).ToSlice()...)
	return pk, nil
}

// Get implements repository.Repository.
func (r *Repository[T]) Get(ctx context.Context, pk int64) (T, bool, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", r.selectList(), quote(r.table), quote(repository.PKField))
	var zero T
	obj, err := r.scan(r.db.conn(ctx).QueryRowContext(ctx, query, pk))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("get %s %d: %w", r.table, pk, err)
	}
	return obj, true, nil
}

// GetAll implements repository.Repository.
func (r *Repository[T]) GetAll(ctx context.Context, where repository.Where) ([]T, error) {
	clause, args, err := r.whereClause(where)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		r.selectList(), quote(r.table), clause, quote(repository.PKField))

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		obj, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", r.table, err)
		}
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	return out, nil
}

// Update implements repository.Repository.
func (r *Repository[T]) Update(ctx context.Context, obj *T) error {
	pk := r.schema.PK(*obj)
	args, err := r.values(*obj)
	if err != nil {
		return err
	}
	sets := make([]string, 0, len(r.schema.Fields))
	for _, f := range r.schema.Fields {
		sets = append(sets, quote(f.Name)+" = ?")
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quote(r.table), strings.Join(sets, ", "), quote(repository.PKField))

	res, err := r.db.conn(ctx).ExecContext(ctx, query, append(args, pk)...)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", r.table, pk, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update %s %d: %w", r.table, pk, err)
	} else if n == 0 {
		return fmt.Errorf("update %s %d: %w", r.table, pk, repository.ErrNotFound)
	}

	storageLogger(ctx).DebugContext(ctx, "Record updated", log.NewFields().WithOperation(log.OpUpdate).WithRecord(r.table, pk).ToSlice()...)
	return nil
}

// Delete implements repository.Repository.
func (r *Repository[T]) Delete(ctx context.Context, pk int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quote(r.table), quote(repository.PKField))
	res, err := r.db.conn(ctx).ExecContext(ctx, query, pk)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", r.table, pk, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete %s %d: %w", r.table, pk, err)
	} else if n == 0 {
		return fmt.Errorf("delete %s %d: %w", r.table, pk, repository.ErrNotFound)
	}

	storageLogger(ctx).DebugContext(ctx, "Record deleted", log.NewFields().WithOperation(log.OpDelete).WithRecord(r.table, pk).ToSlice()...)
	return nil
}

func (r *Repository[T]) selectList() string {
	cols := make([]string, 0, len(r.schema.Fields)+1)
	cols = append(cols, quote(repository.PKField))
	for _, f := range r.schema.Fields {
		cols = append(cols, quote(f.Name))
	}
	return strings.Join(cols, ", ")
}

func (r *Repository[T]) values(obj T) ([]any, error) {
	args := make([]any, 0, len(r.schema.Fields))
	for _, f := range r.schema.Fields {
		v, err := repository.Normalize(f.Type, f.Nullable, f.Get(obj))
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", r.table, f.Name, err)
		}
		col, err := encode(f.Type, f.Nullable, v)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", r.table, f.Name, err)
		}
		args = append(args, col)
	}
	return args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository[T]) scan(s scanner) (T, error) {
	var obj T
	var pk int64
	dests := make([]any, 0, len(r.schema.Fields)+1)
	dests = append(dests, &pk)
	for _, f := range r.schema.Fields {
		dests = append(dests, scanTarget(f.Type))
	}
	if err := s.Scan(dests...); err != nil {
		return obj, err
	}
	r.schema.SetPK(&obj, pk)
	for i, f := range r.schema.Fields {
		v, err := decode(f.Type, dests[i+1])
		if err != nil {
			return obj, fmt.Errorf("field %s: %w", f.Name, err)
		}
		f.Set(&obj, v)
	}
	return obj, nil
}

func (r *Repository[T]) whereClause(where repository.Where) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}
	names := make([]string, 0, len(where))
	for name := range where {
		names = append(names, name)
	}
	// Deterministic statement text.
	slices.Sort(names)

	conds := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		value := where[name]
		if name == repository.PKField {
			v, err := repository.Normalize(repository.Integer, false, value)
			if err != nil {
				return "", nil, fmt.Errorf("filter %s.%s: %w", r.table, name, err)
			}
			conds = append(conds, quote(name)+" = ?")
			args = append(args, v)
			continue
		}
		f, ok := r.schema.Field(name)
		if !ok {
			return "", nil, fmt.Errorf("filter %s.%s: %w", r.table, name, repository.ErrUnknownField)
		}
		v, err := repository.Normalize(f.Type, f.Nullable, value)
		if err != nil {
			return "", nil, fmt.Errorf("filter %s.%s: %w", r.table, name, err)
		}
		col, err := encode(f.Type, f.Nullable, v)
		if err != nil {
			return "", nil, fmt.Errorf("filter %s.%s: %w", r.table, name, err)
		}
		if col == nil {
			conds = append(conds, quote(f.Name)+" IS NULL")
			continue
		}
		conds = append(conds, quote(f.Name)+" = ?")
		args = append(args, col)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func storageLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentStorage)
}
