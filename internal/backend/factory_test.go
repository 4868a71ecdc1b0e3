package backend

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookkeeper/internal/config"
	"bookkeeper/internal/core"
	"bookkeeper/internal/log"
	"bookkeeper/internal/repository"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		app     *config.Config
		want    Config
		wantErr bool
	}{
		{name: "nil config", app: nil, wantErr: true},
		{name: "unknown backend", app: &config.Config{DataBackend: "sheets"}, wantErr: true},
		{
			name: "sqlite",
			app:  &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", CategorySeedFile: "seed.txt"},
			want: Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", SeedFile: "seed.txt"},
		},
		{
			name: "memory",
			app:  &config.Config{DataBackend: "memory"},
			want: Config{Type: MemoryBackend},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.app)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && tt.app != nil && !strings.Contains(err.Error(), "[sqlite memory]") {
				t.Errorf("FromAppConfig() error = %v, want the supported backends listed", err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("FromAppConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("Validate() error = nil for sqlite without path")
	}
	err := (Config{Type: "redis"}).Validate()
	if err == nil {
		t.Fatal("Validate() error = nil for unknown type")
	}
	if want := "must be one of [sqlite memory]"; !strings.Contains(err.Error(), want) {
		t.Errorf("Validate() error = %v, want it to list %q", err, want)
	}
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s.IsValid() = false", bt)
		}
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name   string
		config Config
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "books.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			if result.Cleanup != nil {
				defer result.Cleanup()
			}
			stores := result.Stores

			food := core.Category{Name: "food"}
			if _, err := stores.Categories.Add(ctx, &food); err != nil {
				t.Fatalf("Add(category) error = %v", err)
			}
			// The shared transactor covers every store.
			boom := errors.New("boom")
			err = stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
				e := core.Expense{Cost: 100, Category: food.PK}
				if _, err := stores.Expenses.Add(ctx, &e); err != nil {
					return err
				}
				if err := stores.Categories.Delete(ctx, food.PK); err != nil {
					return err
				}
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("WithinTx() error = %v, want boom", err)
			}
			if _, ok, _ := stores.Categories.Get(ctx, food.PK); !ok {
				t.Error("category deleted despite rollback")
			}
			all, err := stores.Expenses.GetAll(ctx, repository.Where{"category": food.PK})
			if err != nil {
				t.Fatalf("GetAll() error = %v", err)
			}
			if len(all) != 0 {
				t.Errorf("got %d expenses after rollback, want 0", len(all))
			}
		})
	}
}

func TestCreateBackendLogsDatabasePath(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	path := filepath.Join(t.TempDir(), "books.db")

	result, err := NewFactory(logger).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer result.Cleanup()

	out := buf.String()
	if !strings.Contains(out, "Initialized SQLite backend") || !strings.Contains(out, "db_path="+path) {
		t.Errorf("backend log missing database path %s:\n%s", path, out)
	}
}

func TestCreateBackendReadsSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "categories.txt")
	if err := os.WriteFile(seed, []byte("food\n  meat\nbooks\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	result, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: seed})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	want := []core.TreePair{{Name: "food"}, {Name: "meat", Parent: "food"}, {Name: "books"}}
	if len(result.Seed) != len(want) {
		t.Fatalf("Seed = %+v, want %+v", result.Seed, want)
	}
	for i := range want {
		if result.Seed[i] != want[i] {
			t.Errorf("Seed[%d] = %+v, want %+v", i, result.Seed[i], want[i])
		}
	}

	bad := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(bad, []byte("a\n    b\n  c\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, err = NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: bad})
	if !errors.Is(err, core.ErrIndentation) {
		t.Errorf("CreateBackend() error = %v, want ErrIndentation", err)
	}
}
