// Package presenter connects the stores to a View. The view only ever sees
// display entries and reports user actions through callbacks; the
// presenter validates them, writes the stores and redraws what changed.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"bookkeeper/internal/core"
	"bookkeeper/internal/log"
	"bookkeeper/internal/repository"
	"bookkeeper/internal/services"
)

var ErrPosition = errors.New("no entry at position")

// BookKeeper is the presenter.
type BookKeeper struct {
	stores     services.Stores
	view       View
	conv       *EntriesConverter
	reconciler *services.Reconciler
	logger     *log.Logger

	// Keys of the records currently displayed, by position.
	expenses   []int64
	categories []int64
	budgets    []int64
}

// Option configures a BookKeeper.
type Option func(*bookKeeperOptions)

type bookKeeperOptions struct {
	logger *log.Logger
	now    func() time.Time
}

func WithLogger(logger *log.Logger) Option {
	return func(o *bookKeeperOptions) { o.logger = logger }
}

// WithClock replaces time.Now for new expenses and budget windows.
func WithClock(now func() time.Time) Option {
	return func(o *bookKeeperOptions) { o.now = now }
}

func New(stores services.Stores, view View, warnThreshold float64, opts ...Option) *BookKeeper {
	o := bookKeeperOptions{logger: log.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &BookKeeper{
		stores: stores,
		view:   view,
		conv:   NewEntriesConverter(stores.Categories),
		reconciler: services.NewReconciler(stores, warnThreshold,
			services.WithClock(o.now), services.WithLogger(o.logger)),
		logger: o.logger.WithComponent(log.ComponentPresenter),
	}
}

// Init seeds the special budgets, moves their windows to the current
// period, registers the view callbacks and draws every list.
func (b *BookKeeper) Init(ctx context.Context) error {
	if _, err := b.reconciler.SeedSpecialBudgets(ctx); err != nil {
		return fmt.Errorf("seed budgets: %w", err)
	}
	if err := b.reconciler.RecomputeBudgets(ctx); err != nil {
		return fmt.Errorf("recompute budgets: %w", err)
	}
	b.connect()
	return b.refreshAll(ctx)
}

// Start initializes the presenter and runs the view.
func (b *BookKeeper) Start(ctx context.Context) error {
	if err := b.Init(ctx); err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "Presenter started", log.FieldOperation, log.OpStartup)
	return b.view.Start(ctx)
}

func (b *BookKeeper) connect() {
	ev := b.view.Expenses()
	ev.ConnectEdited(b.editExpense)
	ev.ConnectDelete(b.deleteExpenses)
	ev.ConnectAdd(b.addExpense)
	ev.ConnectGetAllowed(b.allowedValues)
	ev.ConnectGetDefault(b.defaultExpense)

	cv := b.view.Categories()
	cv.ConnectEdited(b.editCategory)
	cv.ConnectDelete(b.deleteCategories)
	cv.ConnectAdd(b.addCategory)
	cv.ConnectGetAllowed(b.allowedValues)
	cv.ConnectGetDefault(b.defaultCategory)

	bv := b.view.Budgets()
	bv.ConnectEdited(b.editBudget)
	bv.ConnectDelete(b.deleteBudgets)
	bv.ConnectAdd(b.addBudget)
	bv.ConnectGetAllowed(b.allowedValues)
	bv.ConnectGetDefault(b.defaultBudget)
}

func (b *BookKeeper) refreshAll(ctx context.Context) error {
	if err := b.refreshCategories(ctx); err != nil {
		return err
	}
	if err := b.refreshExpenses(ctx); err != nil {
		return err
	}
	return b.refreshBudgets(ctx)
}

func (b *BookKeeper) refreshExpenses(ctx context.Context) error {
	all, err := b.stores.Expenses.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	entries := make([]ExpenseEntry, 0, len(all))
	keys := make([]int64, 0, len(all))
	for _, e := range all {
		entry, err := b.conv.ExpenseToEntry(ctx, e)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		keys = append(keys, e.PK)
	}
	b.expenses = keys
	b.view.Expenses().SetContents(entries)
	return nil
}

func (b *BookKeeper) refreshCategories(ctx context.Context) error {
	sorted, err := b.reconciler.Tree().AllSorted(ctx)
	if err != nil {
		return err
	}
	var (
		entries []CategoryEntry
		keys    []int64
	)
	for c := range sorted {
		entry, err := b.conv.CategoryToEntry(ctx, c)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		keys = append(keys, c.PK)
	}
	b.categories = keys
	b.view.Categories().SetContents(entries)
	return nil
}

func (b *BookKeeper) refreshBudgets(ctx context.Context) error {
	all, err := b.reconciler.Budgets(ctx)
	if err != nil {
		return err
	}
	entries := make([]BudgetEntry, 0, len(all))
	statuses := make([]services.Status, 0, len(all))
	keys := make([]int64, 0, len(all))
	for _, bud := range all {
		spent, status, err := b.reconciler.Status(ctx, bud)
		if err != nil {
			return err
		}
		entry, err := b.conv.BudgetToEntry(ctx, bud, spent)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		statuses = append(statuses, status)
		keys = append(keys, bud.PK)
	}
	b.budgets = keys
	bv := b.view.Budgets()
	bv.SetContents(entries)
	for i, s := range statuses {
		bv.SetStatus(i, s)
	}
	return nil
}

func keyAt(keys []int64, position int) (int64, error) {
	if position < 0 || position >= len(keys) {
		return 0, fmt.Errorf("%w %d", ErrPosition, position)
	}
	return keys[position], nil
}

func (b *BookKeeper) rejected(ctx context.Context, what string, position int, err error) {
	if core.IsValidation(err) {
		b.logger.WarnContext(ctx, "Rejected edit", log.FieldOperation, log.OpValidate, "entity", what, log.FieldPosition, position, log.FieldError, err)
	}
}

// Expenses

func (b *BookKeeper) editExpense(ctx context.Context, position int, entry ExpenseEntry) error {
	pk, err := keyAt(b.expenses, position)
	if err != nil {
		return err
	}
	old, ok, err := b.stores.Expenses.Get(ctx, pk)
	if err != nil {
		return err
	}
	if !ok {
		return b.refreshExpenses(ctx)
	}
	oldEntry, err := b.conv.ExpenseToEntry(ctx, old)
	if err != nil {
		return err
	}

	updated, err := b.conv.EntryToExpense(ctx, entry, old)
	if err == nil {
		err = b.stores.Expenses.Update(ctx, &updated)
	}
	if err != nil {
		b.rejected(ctx, "expense", position, err)
		b.view.Expenses().SetAtPosition(position, oldEntry)
		return err
	}

	newEntry, err := b.conv.ExpenseToEntry(ctx, updated)
	if err != nil {
		return err
	}
	b.view.Expenses().SetAtPosition(position, newEntry)
	return b.refreshBudgets(ctx)
}

func (b *BookKeeper) deleteExpenses(ctx context.Context, positions []int) error {
	keys, err := keysAt(b.expenses, positions)
	if err != nil {
		return err
	}
	err = b.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, pk := range keys {
			if err := b.stores.Expenses.Delete(ctx, pk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := b.refreshExpenses(ctx); err != nil {
		return err
	}
	return b.refreshBudgets(ctx)
}

func (b *BookKeeper) addExpense(ctx context.Context, entry ExpenseEntry) error {
	now := b.reconciler.Now()
	e, err := b.conv.EntryToExpense(ctx, entry, core.Expense{ExpenseDate: now, AddedDate: now})
	if err != nil {
		b.rejected(ctx, "expense", -1, err)
		return err
	}
	if _, err := b.stores.Expenses.Add(ctx, &e); err != nil {
		return err
	}
	b.logger.DebugContext(ctx, "Expense added", log.FieldPK, e.PK, log.FieldAmountMinor, e.Cost)
	if err := b.refreshExpenses(ctx); err != nil {
		return err
	}
	return b.refreshBudgets(ctx)
}

func (b *BookKeeper) defaultExpense(context.Context) (ExpenseEntry, error) {
	return ExpenseEntry{
		Date:     core.FormatDateTime(b.reconciler.Now()),
		Cost:     core.FormatAmount(0),
		Category: core.TopCategoryName,
	}, nil
}

// Categories

// checkUnique rejects name if a category other than pk already uses it.
func (b *BookKeeper) checkUnique(ctx context.Context, name string, pk int64) error {
	same, err := b.stores.Categories.GetAll(ctx, repository.Where{"name": name})
	if err != nil {
		return fmt.Errorf("find category %q: %w", name, err)
	}
	for _, c := range same {
		if c.PK != pk {
			return &core.ValidationError{Field: "category", Err: fmt.Errorf("%w: %q", core.ErrDuplicateCategory, name)}
		}
	}
	return nil
}

func (b *BookKeeper) validateCategory(ctx context.Context, entry CategoryEntry, base core.Category) (core.Category, error) {
	c, err := b.conv.EntryToCategory(ctx, entry, base)
	if err != nil {
		return base, err
	}
	if err := b.checkUnique(ctx, c.Name, c.PK); err != nil {
		return base, err
	}
	if c.PK != 0 && c.Parent != 0 {
		parent, ok, err := b.stores.Categories.Get(ctx, c.Parent)
		if err != nil {
			return base, err
		}
		if ok {
			cycle, err := b.reconciler.Tree().IsAncestor(ctx, c.PK, parent)
			if err != nil {
				return base, err
			}
			if cycle {
				return base, &core.ValidationError{Field: "parent", Err: fmt.Errorf("%w: %q", core.ErrCategoryCycle, c.Name)}
			}
		}
	}
	return c, nil
}

func (b *BookKeeper) editCategory(ctx context.Context, position int, entry CategoryEntry) error {
	pk, err := keyAt(b.categories, position)
	if err != nil {
		return err
	}
	old, ok, err := b.stores.Categories.Get(ctx, pk)
	if err != nil {
		return err
	}
	if !ok {
		return b.refreshCategories(ctx)
	}
	oldEntry, err := b.conv.CategoryToEntry(ctx, old)
	if err != nil {
		return err
	}

	err = b.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		updated, err := b.validateCategory(ctx, entry, old)
		if err != nil {
			return err
		}
		return b.stores.Categories.Update(ctx, &updated)
	})
	if err != nil {
		b.rejected(ctx, "category", position, err)
		b.view.Categories().SetAtPosition(position, oldEntry)
		return err
	}
	// Names and order may have changed everywhere.
	return b.refreshAll(ctx)
}

func (b *BookKeeper) deleteCategories(ctx context.Context, positions []int) error {
	keys, err := keysAt(b.categories, positions)
	if err != nil {
		return err
	}
	err = b.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, pk := range keys {
			// An earlier cascade in this batch may have removed it already.
			c, ok, err := b.stores.Categories.Get(ctx, pk)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := b.reconciler.DeleteCategoryCascade(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.refreshAll(ctx)
}

func (b *BookKeeper) addCategory(ctx context.Context, entry CategoryEntry) error {
	c, err := b.validateCategory(ctx, entry, core.Category{})
	if err != nil {
		b.rejected(ctx, "category", -1, err)
		return err
	}
	if _, err := b.stores.Categories.Add(ctx, &c); err != nil {
		return err
	}
	b.logger.DebugContext(ctx, "Category added", log.FieldPK, c.PK, log.FieldCategory, c.Name)
	return b.refreshCategories(ctx)
}

func (b *BookKeeper) defaultCategory(context.Context) (CategoryEntry, error) {
	return CategoryEntry{Parent: core.TopCategoryName}, nil
}

// ImportCategories creates the categories of an indented tree. Names that
// already exist are rejected before anything is written.
func (b *BookKeeper) ImportCategories(ctx context.Context, pairs []core.TreePair) ([]core.Category, error) {
	var created []core.Category
	err := b.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		seen := make(map[string]bool, len(pairs))
		for _, p := range pairs {
			if _, err := ValidateCategoryName(p.Name); err != nil {
				return err
			}
			if seen[p.Name] {
				return &core.ValidationError{Field: "category", Err: fmt.Errorf("%w: %q", core.ErrDuplicateCategory, p.Name)}
			}
			seen[p.Name] = true
			if err := b.checkUnique(ctx, p.Name, 0); err != nil {
				return err
			}
		}
		var err error
		created, err = b.reconciler.Tree().BuildFromIndentedList(ctx, pairs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, b.refreshAll(ctx)
}

// Budgets

func (b *BookKeeper) editBudget(ctx context.Context, position int, entry BudgetEntry) error {
	pk, err := keyAt(b.budgets, position)
	if err != nil {
		return err
	}
	old, ok, err := b.stores.Budgets.Get(ctx, pk)
	if err != nil {
		return err
	}
	if !ok {
		return b.refreshBudgets(ctx)
	}
	if err := services.RecomputePeriod(&old, b.reconciler.Now()); err != nil {
		return err
	}
	spent, err := b.reconciler.AmountSpent(ctx, old)
	if err != nil {
		return err
	}
	oldEntry, err := b.conv.BudgetToEntry(ctx, old, spent)
	if err != nil {
		return err
	}

	updated, err := b.conv.EntryToBudget(ctx, entry, old, b.reconciler.Now())
	if err == nil && old.BudgetType.IsSpecial() != updated.BudgetType.IsSpecial() {
		err = &core.ValidationError{
			Field: "period",
			Err:   fmt.Errorf("%w: %s budget cannot become %s", core.ErrInvalidPeriod, old.BudgetType, updated.BudgetType),
		}
	}
	if err == nil {
		err = b.stores.Budgets.Update(ctx, &updated)
	}
	if err != nil {
		b.rejected(ctx, "budget", position, err)
		b.view.Budgets().SetAtPosition(position, oldEntry)
		return err
	}
	return b.refreshBudgets(ctx)
}

func (b *BookKeeper) deleteBudgets(ctx context.Context, positions []int) error {
	keys, err := keysAt(b.budgets, positions)
	if err != nil {
		return err
	}
	err = b.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, pk := range keys {
			bud, ok, err := b.stores.Budgets.Get(ctx, pk)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if bud.BudgetType.IsSpecial() {
				return &core.ValidationError{Field: "period", Err: fmt.Errorf("%w: %s", core.ErrSpecialBudget, bud.BudgetType)}
			}
			if err := b.stores.Budgets.Delete(ctx, pk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.rejected(ctx, "budget", -1, err)
		return err
	}
	return b.refreshBudgets(ctx)
}

func (b *BookKeeper) addBudget(ctx context.Context, entry BudgetEntry) error {
	bud, err := b.conv.EntryToBudget(ctx, entry, core.Budget{}, b.reconciler.Now())
	if err == nil && bud.BudgetType.IsSpecial() {
		err = &core.ValidationError{
			Field: "period",
			Err:   fmt.Errorf("%w: only custom budgets can be added, need YYYY-MM-DD - YYYY-MM-DD", core.ErrInvalidPeriod),
		}
	}
	if err != nil {
		b.rejected(ctx, "budget", -1, err)
		return err
	}
	if _, err := b.stores.Budgets.Add(ctx, &bud); err != nil {
		return err
	}
	return b.refreshBudgets(ctx)
}

func (b *BookKeeper) defaultBudget(context.Context) (BudgetEntry, error) {
	start, _, _ := services.MonthlyPeriod{}.Window(b.reconciler.Now())
	return BudgetEntry{
		Period:    core.FormatPeriod(start, start.AddDate(0, 1, 0)),
		CostLimit: core.FormatAmount(0),
		Spent:     core.FormatAmount(0),
		Category:  core.TopCategoryName,
	}, nil
}

// Shared

// allowedValues lists the values a field may take: category names for the
// category and parent fields, special type names for the period field.
// Fields with free input return nil.
func (b *BookKeeper) allowedValues(ctx context.Context, field string) ([]string, error) {
	switch field {
	case "category", "parent":
		sorted, err := b.reconciler.Tree().AllSorted(ctx)
		if err != nil {
			return nil, err
		}
		out := []string{core.TopCategoryName}
		for c := range sorted {
			out = append(out, c.Name)
		}
		return out, nil
	case "period":
		out := make([]string, 0, len(core.SpecialBudgetTypes))
		for _, t := range core.SpecialBudgetTypes {
			out = append(out, t.String())
		}
		return out, nil
	default:
		return nil, nil
	}
}

func keysAt(keys []int64, positions []int) ([]int64, error) {
	out := make([]int64, 0, len(positions))
	for _, p := range positions {
		pk, err := keyAt(keys, p)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, pk) {
			out = append(out, pk)
		}
	}
	return out, nil
}
