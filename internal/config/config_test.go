package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		DataBackend:         "memory",
		SQLiteDBPath:        "",
		BudgetWarnThreshold: 0.9,
		View:                "console",
		LogLevel:            "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name        string
		modify      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid sqlite backend config",
			modify: func(c *Config) {
				c.DataBackend = "sqlite"
				c.SQLiteDBPath = filepath.Join(tmpDir, "nested", "test.db")
			},
			wantErr: false,
		},
		{
			name:        "invalid data backend",
			modify:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "invalid DATA_BACKEND 'sheets': must be one of [memory sqlite]",
		},
		{
			name: "sqlite backend missing database path",
			modify: func(c *Config) {
				c.DataBackend = "sqlite"
				c.SQLiteDBPath = ""
			},
			wantErr:     true,
			errorString: "SQLITE_DB_PATH cannot be empty when DataBackend is sqlite",
		},
		{
			name:        "threshold of zero",
			modify:      func(c *Config) { c.BudgetWarnThreshold = 0 },
			wantErr:     true,
			errorString: "invalid BUDGET_WARN_THRESHOLD 0: must be greater than 0",
		},
		{
			name:        "threshold of one",
			modify:      func(c *Config) { c.BudgetWarnThreshold = 1 },
			wantErr:     true,
			errorString: "invalid BUDGET_WARN_THRESHOLD 1: must be less than 1",
		},
		{
			name:        "unknown view",
			modify:      func(c *Config) { c.View = "gtk" },
			wantErr:     true,
			errorString: "invalid VIEW 'gtk'",
		},
		{
			name:        "unknown log level",
			modify:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid LOG_LEVEL 'verbose'",
		},
		{
			name:        "missing seed file",
			modify:      func(c *Config) { c.CategorySeedFile = filepath.Join(tmpDir, "missing.txt") },
			wantErr:     true,
			errorString: "CATEGORY_SEED_FILE does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllProblems(t *testing.T) {
	cfg := Config{DataBackend: "sqlite", BudgetWarnThreshold: 2, View: "console", LogLevel: "loud"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Config.Validate() error = nil, want error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration validation failed:\n- ") {
		t.Errorf("error = %q, want aggregated message", msg)
	}
	if n := strings.Count(msg, "\n- "); n != 3 {
		t.Errorf("error lists %d problems, want 3:\n%s", n, msg)
	}
}

func TestConfig_ValidateWithSeedFile(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "categories.txt")
	if err := os.WriteFile(seed, []byte("food\n  meat\n"), 0644); err != nil {
		t.Fatalf("Failed to create seed file: %v", err)
	}
	cfg := validConfig()
	cfg.CategorySeedFile = seed
	if err := cfg.Validate(); err != nil {
		t.Errorf("Config.Validate() error = %v, want nil", err)
	}
}

func TestLoad(t *testing.T) {
	for _, key := range []string{"DATA_BACKEND", "SQLITE_DB_PATH", "BUDGET_WARN_THRESHOLD", "VIEW", "LOG_LEVEL", "CATEGORY_SEED_FILE"} {
		t.Setenv(key, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.DataBackend != "memory" {
			t.Errorf("Load() DataBackend = %v, want memory", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "./data/bookkeeper.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want ./data/bookkeeper.db", cfg.SQLiteDBPath)
		}
		if cfg.BudgetWarnThreshold != 0.9 {
			t.Errorf("Load() BudgetWarnThreshold = %v, want 0.9", cfg.BudgetWarnThreshold)
		}
		if cfg.View != "console" || cfg.LogLevel != "info" || cfg.CategorySeedFile != "" {
			t.Errorf("Load() = %+v, want console view, info level, no seed file", cfg)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("DATA_BACKEND", "sqlite")
		t.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
		t.Setenv("BUDGET_WARN_THRESHOLD", "0.75")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("CATEGORY_SEED_FILE", "cats.txt")

		cfg := Load()

		if cfg.DataBackend != "sqlite" {
			t.Errorf("Load() DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/test.db", cfg.SQLiteDBPath)
		}
		if cfg.BudgetWarnThreshold != 0.75 {
			t.Errorf("Load() BudgetWarnThreshold = %v, want 0.75", cfg.BudgetWarnThreshold)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("Load() LogLevel = %v, want debug", cfg.LogLevel)
		}
		if cfg.CategorySeedFile != "cats.txt" {
			t.Errorf("Load() CategorySeedFile = %v, want cats.txt", cfg.CategorySeedFile)
		}
	})

	t.Run("unparsable threshold fails validation", func(t *testing.T) {
		t.Setenv("DATA_BACKEND", "memory")
		t.Setenv("BUDGET_WARN_THRESHOLD", "most")

		cfg := Load()

		if cfg.BudgetWarnThreshold != 0.9 {
			t.Errorf("Load() BudgetWarnThreshold = %v, want 0.9 (default for invalid input)", cfg.BudgetWarnThreshold)
		}
		err := cfg.Validate()
		if err == nil {
			t.Fatal("Validate() error = nil for non-numeric BUDGET_WARN_THRESHOLD")
		}
		if want := "invalid BUDGET_WARN_THRESHOLD 'most': must be a number"; !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, want it to contain %q", err, want)
		}
	})
}
