package console

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"bookkeeper/internal/core"
	"bookkeeper/internal/log"
	"bookkeeper/internal/presenter"
	"bookkeeper/internal/repository/memory"
	"bookkeeper/internal/services"
)

var testNow = time.Date(2024, 12, 31, 12, 0, 0, 0, time.Local)

func newStores(t *testing.T) services.Stores {
	t.Helper()
	expenses, err := memory.New(core.ExpenseSchema())
	if err != nil {
		t.Fatalf("memory.New(expense) error = %v", err)
	}
	categories, err := memory.New(core.CategorySchema())
	if err != nil {
		t.Fatalf("memory.New(category) error = %v", err)
	}
	budgets, err := memory.New(core.BudgetSchema())
	if err != nil {
		t.Fatalf("memory.New(budget) error = %v", err)
	}
	return services.Stores{
		Expenses:   expenses,
		Categories: categories,
		Budgets:    budgets,
		Tx:         memory.NewTransactor(expenses, categories, budgets),
	}
}

func newBookKeeper(t *testing.T, script string) (*presenter.BookKeeper, *View, *bytes.Buffer, services.Stores) {
	t.Helper()
	stores := newStores(t)
	out := &bytes.Buffer{}
	v := New(strings.NewReader(script), out)
	bk := presenter.New(stores, v, 0.9, presenter.WithClock(func() time.Time { return testNow }))
	return bk, v, out, stores
}

func TestScript(t *testing.T) {
	script := strings.Join([]string{
		"add category food",
		"add category meat under food",
		"12.50 meat steak dinner",
		"expenses",
		"categories",
		"limit 1 10",
		"budgets",
		"delete expense 1",
		"expenses",
		"bogus",
		"quit",
		"expenses",
	}, "\n")
	bk, _, out, stores := newBookKeeper(t, script)

	if err := bk.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"12.50  meat  steak dinner",
		"food",
		"12.50/10.00",
		"(overrun)",
		"no expenses",
		`error: unknown command "bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
	// Nothing after quit runs, so "no expenses" is printed exactly once.
	if n := strings.Count(got, "no expenses"); n != 1 {
		t.Errorf(`"no expenses" printed %d times, want 1`, n)
	}

	all, err := stores.Categories.GetAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 2 || all[1].Parent != all[0].PK {
		t.Errorf("categories = %+v, want meat under food", all)
	}
}

func TestExec(t *testing.T) {
	bk, v, out, stores := newBookKeeper(t, "")
	ctx := context.Background()
	if err := bk.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	for _, line := range []string{"add category meat", "add category raw meat under meat"} {
		if err := v.Exec(ctx, line); err != nil {
			t.Fatalf("Exec(%q) error = %v", line, err)
		}
	}

	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{name: "longest category wins", line: "3 raw meat from the market"},
		{name: "no category", line: "1,5"},
		{name: "bad amount", line: "1.234 meat", wantErr: core.ErrInvalidAmount},
		{name: "unknown category", line: "2 fish", wantErr: core.ErrUnknownCategory},
		{name: "duplicate category", line: "add category meat", wantErr: core.ErrDuplicateCategory},
		{name: "reserved name", line: "add category -", wantErr: core.ErrReservedName},
		{name: "custom budget", line: "add budget 2024-12-01 - 2025-01-01 100"},
		{name: "special budget cannot be deleted", line: "delete budget 1", wantErr: core.ErrSpecialBudget},
		{name: "entry out of range", line: "delete expense 9", wantErr: presenter.ErrPosition},
		{name: "limit out of range", line: "limit 9 1", wantErr: presenter.ErrPosition},
		{name: "period change", line: "period 1 Weekly"},
		{name: "unknown command", line: "frobnicate", wantErr: ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Exec(ctx, tt.line)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Exec(%q) error = %v", tt.line, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Exec(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
		})
	}

	expenses, err := stores.Expenses.GetAll(ctx, nil)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("got %d expenses, want 2", len(expenses))
	}
	if expenses[0].Cost != 300 || expenses[0].Comment != "from the market" {
		t.Errorf("first expense = %+v, want 3.00 raw meat with comment", expenses[0])
	}
	if expenses[1].Cost != 150 || expenses[1].Category != 0 {
		t.Errorf("second expense = %+v, want 1.50 without category", expenses[1])
	}

	budgets, err := stores.Budgets.GetAll(ctx, nil)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(budgets) != 4 {
		t.Fatalf("got %d budgets, want 3 special and 1 custom", len(budgets))
	}
	if budgets[0].BudgetType != core.Weekly {
		t.Errorf("first budget type = %s, want Weekly", budgets[0].BudgetType)
	}

	out.Reset()
	if err := v.Exec(ctx, "categories"); err != nil {
		t.Fatalf("Exec(categories) error = %v", err)
	}
	tree := out.String()
	if strings.Index(tree, "raw meat") < strings.Index(tree, "meat") {
		t.Errorf("raw meat drawn before its parent:\n%s", tree)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	bk, _, out, _ := newBookKeeper(t, "expenses\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bk.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if strings.Contains(out.String(), "no expenses") {
		t.Errorf("command ran after cancellation:\n%s", out.String())
	}
}

func TestStartStopsAtEOF(t *testing.T) {
	bk, _, out, _ := newBookKeeper(t, "help")
	if err := bk.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !strings.Contains(out.String(), "commands:") {
		t.Errorf("help not printed:\n%s", out.String())
	}
}

func TestStartLogsFailedCommands(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})})
	out := &bytes.Buffer{}
	v := New(strings.NewReader("frobnicate\n"), out, WithLogger(logger))
	bk := presenter.New(newStores(t), v, 0.9, presenter.WithClock(func() time.Time { return testNow }))

	if err := bk.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !strings.Contains(out.String(), "error: unknown command") {
		t.Errorf("failure not shown to the user:\n%s", out.String())
	}
	got := logs.String()
	for _, want := range []string{"Command failed", "component=view", "operation=frobnicate", `error="unknown command \"frobnicate\""`} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %s:\n%s", want, got)
		}
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "1", want: 0},
		{in: "12", want: 11},
		{in: "0", wantErr: true},
		{in: "-2", wantErr: true},
		{in: "x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePosition(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePosition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePosition(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
