package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bookkeeper/internal/core"
	"bookkeeper/internal/log"
	"bookkeeper/internal/repository"
)

// Status is the visual state of a budget.
type Status int

const (
	StatusDefault Status = iota
	StatusWarning
	StatusOverrun
)

func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusOverrun:
		return "overrun"
	default:
		return "default"
	}
}

// BudgetStatus classifies spent against the budget limit. A zero limit is
// unlimited and always Default.
func BudgetStatus(b core.Budget, spent int64, warnThreshold float64) Status {
	if b.CostLimit <= 0 {
		return StatusDefault
	}
	limit := decimal.NewFromInt(b.CostLimit)
	amount := decimal.NewFromInt(spent)
	switch {
	case amount.GreaterThan(limit):
		return StatusOverrun
	case amount.GreaterThan(limit.Mul(decimal.NewFromFloat(warnThreshold))):
		return StatusWarning
	default:
		return StatusDefault
	}
}

// Stores bundles the three entity repositories with the transactor that
// covers all of them.
type Stores struct {
	Expenses   repository.Repository[core.Expense]
	Categories repository.Repository[core.Category]
	Budgets    repository.Repository[core.Budget]
	Tx         repository.Transactor
}

// Reconciler folds expenses into budgets and keeps references consistent
// when categories go away.
type Reconciler struct {
	stores        Stores
	tree          *CategoryTree
	warnThreshold float64
	now           func() time.Time
	logger        *log.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.now = now }
}

// WithLogger sets the logger; the default discards.
func WithLogger(logger *log.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = logger.WithComponent(log.ComponentBudget) }
}

func NewReconciler(stores Stores, warnThreshold float64, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		stores:        stores,
		tree:          NewCategoryTree(stores.Categories),
		warnThreshold: warnThreshold,
		now:           time.Now,
		logger:        log.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tree returns the category tree over the same store.
func (r *Reconciler) Tree() *CategoryTree {
	return r.tree
}

// Now returns the current time of the reconciler's clock.
func (r *Reconciler) Now() time.Time {
	return r.now()
}

// AmountSpent sums the cost of every expense dated strictly inside the
// budget window.
func (r *Reconciler) AmountSpent(ctx context.Context, b core.Budget) (int64, error) {
	expenses, err := r.stores.Expenses.GetAll(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	var total int64
	for _, e := range expenses {
		if b.Contains(e.ExpenseDate) {
			total += e.Cost
		}
	}
	return total, nil
}

// Status returns the amount spent in b and its classification.
func (r *Reconciler) Status(ctx context.Context, b core.Budget) (int64, Status, error) {
	spent, err := r.AmountSpent(ctx, b)
	if err != nil {
		return 0, StatusDefault, err
	}
	return spent, BudgetStatus(b, spent, r.warnThreshold), nil
}

// Budgets returns every budget with special windows moved to the current
// period. Nothing is written back.
func (r *Reconciler) Budgets(ctx context.Context) ([]core.Budget, error) {
	budgets, err := r.stores.Budgets.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	now := r.now()
	for i := range budgets {
		if err := RecomputePeriod(&budgets[i], now); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

// SeedSpecialBudgets adds an unlimited, uncategorized budget for each
// special type that has none yet.
func (r *Reconciler) SeedSpecialBudgets(ctx context.Context) ([]core.Budget, error) {
	var seeded []core.Budget
	err := r.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, t := range core.SpecialBudgetTypes {
			existing, err := r.stores.Budgets.GetAll(ctx, repository.Where{"budget_type": t})
			if err != nil {
				return fmt.Errorf("list %s budgets: %w", t, err)
			}
			if len(existing) > 0 {
				continue
			}
			b := core.Budget{}
			if err := SetBudgetType(&b, t, r.now()); err != nil {
				return err
			}
			if _, err := r.stores.Budgets.Add(ctx, &b); err != nil {
				return fmt.Errorf("seed %s budget: %w", t, err)
			}
			r.logger.DebugContext(ctx, "Seeded special budget", log.FieldBudgetType, t.String(), log.FieldPK, b.PK)
			seeded = append(seeded, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(seeded) > 0 {
		r.logger.InfoContext(ctx, "Seeded special budgets", log.FieldOperation, log.OpSeed, log.FieldCount, len(seeded))
	}
	return seeded, nil
}

// RecomputeBudgets moves every special budget window to the current period
// and persists it.
func (r *Reconciler) RecomputeBudgets(ctx context.Context) error {
	return r.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		budgets, err := r.stores.Budgets.GetAll(ctx, nil)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		now := r.now()
		for i := range budgets {
			b := &budgets[i]
			if !b.BudgetType.IsSpecial() {
				continue
			}
			if err := RecomputePeriod(b, now); err != nil {
				return err
			}
			if err := r.stores.Budgets.Update(ctx, b); err != nil {
				return fmt.Errorf("update budget %d: %w", b.PK, err)
			}
		}
		return nil
	})
}

// DeleteCategoryCascade deletes c and all of its descendants, then points
// every expense and budget that referenced any of them at c's parent.
// Everything happens in one transaction.
func (r *Reconciler) DeleteCategoryCascade(ctx context.Context, c core.Category) error {
	err := r.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		descendants, err := r.tree.Descendants(ctx, c)
		if err != nil {
			return err
		}
		toDelete := []int64{c.PK}
		for d := range descendants {
			toDelete = append(toDelete, d.PK)
		}

		for _, pk := range toDelete {
			if err := r.stores.Categories.Delete(ctx, pk); err != nil {
				return fmt.Errorf("delete category %d: %w", pk, err)
			}
		}
		for _, pk := range toDelete {
			if err := relink(ctx, r.stores.Expenses, pk, c.Parent, func(e *core.Expense) { e.Category = c.Parent }); err != nil {
				return err
			}
		}
		for _, pk := range toDelete {
			if err := relink(ctx, r.stores.Budgets, pk, c.Parent, func(b *core.Budget) { b.Category = c.Parent }); err != nil {
				return err
			}
		}

		r.logger.InfoContext(ctx, "Deleted category subtree",
			log.FieldOperation, log.OpCascade,
			log.FieldCategory, c.Name,
			log.FieldCount, len(toDelete))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete category %q: %w", c.Name, err)
	}
	return nil
}

// relink rewrites every record of repo whose category is from to point at to.
func relink[T any](ctx context.Context, repo repository.Repository[T], from, to int64, set func(*T)) error {
	records, err := repo.GetAll(ctx, repository.Where{"category": from})
	if err != nil {
		return fmt.Errorf("list records of category %d: %w", from, err)
	}
	for i := range records {
		set(&records[i])
		if err := repo.Update(ctx, &records[i]); err != nil {
			return fmt.Errorf("relink to category %d: %w", to, err)
		}
	}
	return nil
}
