package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	// Backend selection
	DataBackend string `env:"DATA_BACKEND" validate:"oneof=memory sqlite"`

	// Database
	SQLiteDBPath string `env:"SQLITE_DB_PATH" validate:"required_if=DataBackend sqlite"`

	// Budgets
	BudgetWarnThreshold float64 `env:"BUDGET_WARN_THRESHOLD" validate:"gt=0,lt=1"`

	// User interface
	View string `env:"VIEW" validate:"oneof=console"`

	LogLevel string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`

	// Indented category tree imported into an empty category store
	CategorySeedFile string `env:"CATEGORY_SEED_FILE" validate:"omitempty,file"`

	// Values Load could not parse; reported by Validate.
	loadErrors []string
}

func Load() *Config {
	cfg := &Config{
		DataBackend:      getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/bookkeeper.db"),
		View:             getEnv("VIEW", "console"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CategorySeedFile: getEnv("CATEGORY_SEED_FILE", ""),
	}

	threshold, err := getEnvFloat("BUDGET_WARN_THRESHOLD", 0.9)
	if err != nil {
		cfg.loadErrors = append(cfg.loadErrors, err.Error())
	}
	cfg.BudgetWarnThreshold = threshold

	return cfg
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report problems by environment key rather than Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	problems := append([]string(nil), c.loadErrors...)

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate configuration: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	// Check if directory exists or can be created
	if c.DataBackend == "sqlite" && c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("invalid %s '%v': must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "required_if":
		return fmt.Sprintf("%s cannot be empty when %s", fe.Field(), strings.Replace(fe.Param(), " ", " is ", 1))
	case "gt":
		return fmt.Sprintf("invalid %s %v: must be greater than %s", fe.Field(), fe.Value(), fe.Param())
	case "lt":
		return fmt.Sprintf("invalid %s %v: must be less than %s", fe.Field(), fe.Value(), fe.Param())
	case "file":
		return fmt.Sprintf("%s does not exist: %v", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("invalid %s '%v': failed %s", fe.Field(), fe.Value(), fe.Tag())
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat returns defaultValue and an error when the variable is set
// but is not a number.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s '%s': must be a number", key, value)
	}
	return f, nil
}
