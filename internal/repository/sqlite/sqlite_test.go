package sqlite

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookkeeper/internal/core"
	"bookkeeper/internal/log"
	"bookkeeper/internal/repository"
	"bookkeeper/internal/repository/repositorytest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRepositoryContract(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) (repository.Repository[repositorytest.Sample], repository.Transactor) {
		db := openTestDB(t)
		repo, err := NewRepository(repositorytest.Context(), db, repositorytest.SampleSchema())
		if err != nil {
			t.Fatalf("NewRepository() error = %v", err)
		}
		return repo, db
	})
}

func TestNewRepositoryRejectsEmptySchema(t *testing.T) {
	db := openTestDB(t)
	schema := repositorytest.SampleSchema()
	schema.Fields = nil
	if _, err := NewRepository(repositorytest.Context(), db, schema); !errors.Is(err, repository.ErrInvalidSchema) {
		t.Fatalf("NewRepository(no fields) error = %v, want ErrInvalidSchema", err)
	}
}

func TestNewRepositoryAddsMissingColumns(t *testing.T) {
	ctx := repositorytest.Context()
	db := openTestDB(t)

	narrow := repositorytest.SampleSchema()
	narrow.Fields = narrow.Fields[:3]
	repo, err := NewRepository(ctx, db, narrow)
	if err != nil {
		t.Fatalf("NewRepository(narrow) error = %v", err)
	}
	old := repositorytest.Sample{Count: 5, Ratio: 0.5, Label: "old"}
	if _, err := repo.Add(ctx, &old); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	wide, err := NewRepository(ctx, db, repositorytest.SampleSchema())
	if err != nil {
		t.Fatalf("NewRepository(wide) error = %v", err)
	}
	got, ok, err := wide.Get(ctx, old.PK)
	if err != nil || !ok {
		t.Fatalf("Get() = _, %v, %v", ok, err)
	}
	if got.Label != "old" || !got.At.IsZero() || got.Span != 0 || got.Ref != 0 {
		t.Errorf("widened record = %+v, want old values with zero new fields", got)
	}

	fresh := repositorytest.Sample{Label: "new", Span: 90 * time.Minute, Ref: 4}
	if _, err := wide.Add(ctx, &fresh); err != nil {
		t.Fatalf("Add() on widened table error = %v", err)
	}

	// Reopening with the same schema must not try to add the columns again.
	if _, err := NewRepository(ctx, db, repositorytest.SampleSchema()); err != nil {
		t.Fatalf("NewRepository(again) error = %v", err)
	}
}

func TestNewRepositoryLogsToContextLogger(t *testing.T) {
	db := openTestDB(t)
	narrow := repositorytest.SampleSchema()
	narrow.Fields = narrow.Fields[:3]
	if _, err := NewRepository(repositorytest.Context(), db, narrow); err != nil {
		t.Fatalf("NewRepository(narrow) error = %v", err)
	}

	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	ctx := log.NewContext(repositorytest.Context(), logger)
	if _, err := NewRepository(ctx, db, repositorytest.SampleSchema()); err != nil {
		t.Fatalf("NewRepository(wide) error = %v", err)
	}

	out := buf.String()
	if got := strings.Count(out, "Added column"); got != 3 {
		t.Errorf("logged %d added columns, want 3:\n%s", got, out)
	}
	if !strings.Contains(out, "component=storage") {
		t.Errorf("records not tagged with the storage component:\n%s", out)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	ctx := repositorytest.Context()
	path := filepath.Join(t.TempDir(), "data", "book.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cats, err := NewRepository(ctx, db, core.CategorySchema())
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	food := core.Category{Name: "Food"}
	if _, err := cats.Add(ctx, &food); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	fruit := core.Category{Name: "Fruit", Parent: food.PK}
	if _, err := cats.Add(ctx, &fruit); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()
	cats, err = NewRepository(ctx, db, core.CategorySchema())
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	top, err := cats.GetAll(ctx, repository.Where{"parent": nil})
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(top) != 1 || top[0].Name != "Food" {
		t.Fatalf("top-level categories = %+v, want [Food]", top)
	}
	kids, err := cats.GetAll(ctx, repository.Where{"parent": food.PK})
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(kids) != 1 || kids[0].Name != "Fruit" {
		t.Fatalf("children of Food = %+v, want [Fruit]", kids)
	}
}

func TestBudgetEndColumnIsQuoted(t *testing.T) {
	ctx := repositorytest.Context()
	db := openTestDB(t)
	budgets, err := NewRepository(ctx, db, core.BudgetSchema())
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	b := core.Budget{CostLimit: 1000, Start: start, End: start.AddDate(0, 1, 0), BudgetType: core.Custom}
	if _, err := budgets.Add(ctx, &b); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	got, err := budgets.GetAll(ctx, repository.Where{"end": b.End, "budget_type": core.Custom})
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(got) != 1 || !got[0].End.Equal(b.End) {
		t.Fatalf("GetAll(end) = %+v, want the added budget", got)
	}
}

func TestDurationEncoding(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 0 0"},
		{time.Microsecond, "0 0 1000"},
		{25*time.Hour + 3*time.Second + 4, "1 3603 4"},
		{-time.Nanosecond, "-1 86399 999999999"},
		{-36 * time.Hour, "-2 43200 0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := encodeDuration(tt.in); got != tt.want {
				t.Fatalf("encodeDuration(%v) = %q, want %q", tt.in, got, tt.want)
			}
			back, err := decodeDuration(tt.want)
			if err != nil {
				t.Fatalf("decodeDuration(%q) error = %v", tt.want, err)
			}
			if back != tt.in {
				t.Fatalf("decodeDuration(%q) = %v, want %v", tt.want, back, tt.in)
			}
		})
	}

	if _, err := decodeDuration("1 2"); err == nil {
		t.Fatal("decodeDuration(short) error = nil, want error")
	}
}
