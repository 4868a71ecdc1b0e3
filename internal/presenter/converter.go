package presenter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookkeeper/internal/core"
	"bookkeeper/internal/repository"
	"bookkeeper/internal/services"
)

// EntriesConverter turns records into display entries and back. It only
// converts; it never writes to a store.
type EntriesConverter struct {
	categories repository.Repository[core.Category]
}

func NewEntriesConverter(categories repository.Repository[core.Category]) *EntriesConverter {
	return &EntriesConverter{categories: categories}
}

func (c *EntriesConverter) ExpenseToEntry(ctx context.Context, e core.Expense) (ExpenseEntry, error) {
	name, err := c.categoryName(ctx, e.Category)
	if err != nil {
		return ExpenseEntry{}, err
	}
	return ExpenseEntry{
		Date:     core.FormatDateTime(e.ExpenseDate),
		Cost:     core.FormatAmount(e.Cost),
		Category: name,
		Comment:  e.Comment,
	}, nil
}

func (c *EntriesConverter) CategoryToEntry(ctx context.Context, cat core.Category) (CategoryEntry, error) {
	parent, err := c.categoryName(ctx, cat.Parent)
	if err != nil {
		return CategoryEntry{}, err
	}
	return CategoryEntry{Category: cat.Name, Parent: parent}, nil
}

func (c *EntriesConverter) BudgetToEntry(ctx context.Context, b core.Budget, spent int64) (BudgetEntry, error) {
	name, err := c.categoryName(ctx, b.Category)
	if err != nil {
		return BudgetEntry{}, err
	}
	period := b.BudgetType.String()
	if !b.BudgetType.IsSpecial() {
		period = core.FormatPeriod(b.Start, b.End)
	}
	return BudgetEntry{
		Period:    period,
		CostLimit: core.FormatAmount(b.CostLimit),
		Spent:     core.FormatAmount(spent),
		Category:  name,
	}, nil
}

// EntryToExpense applies entry on top of base. base keeps its key and
// added date. An empty date keeps base's expense date.
func (c *EntriesConverter) EntryToExpense(ctx context.Context, entry ExpenseEntry, base core.Expense) (core.Expense, error) {
	e := base
	cost, err := core.ParseAmount(entry.Cost)
	if err != nil {
		return base, err
	}
	e.Cost = cost
	if strings.TrimSpace(entry.Date) != "" {
		date, err := core.ParseDateTime(entry.Date)
		if err != nil {
			return base, err
		}
		e.ExpenseDate = date
	}
	if e.Category, err = c.CategoryPK(ctx, entry.Category); err != nil {
		return base, err
	}
	e.Comment = entry.Comment
	return e, nil
}

// EntryToCategory applies entry on top of base. Name uniqueness is not
// checked here.
func (c *EntriesConverter) EntryToCategory(ctx context.Context, entry CategoryEntry, base core.Category) (core.Category, error) {
	cat := base
	name, err := ValidateCategoryName(entry.Category)
	if err != nil {
		return base, err
	}
	cat.Name = name
	parent, err := c.CategoryPK(ctx, entry.Parent)
	if err != nil {
		return base, relabel(err, "parent")
	}
	cat.Parent = parent
	return cat, nil
}

// EntryToBudget applies entry on top of base. A special type name switches
// the budget to that type and its current window; a date range makes it a
// Custom budget with that window. Spent is ignored.
func (c *EntriesConverter) EntryToBudget(ctx context.Context, entry BudgetEntry, base core.Budget, now time.Time) (core.Budget, error) {
	b := base
	limit, err := core.ParseAmount(entry.CostLimit)
	if err != nil {
		return base, relabel(err, "cost_limit")
	}
	b.CostLimit = limit

	period := strings.TrimSpace(entry.Period)
	if t, err := core.ParseBudgetType(period); err == nil && t.IsSpecial() {
		if err := services.SetBudgetType(&b, t, now); err != nil {
			return base, err
		}
	} else {
		start, end, err := core.ParsePeriod(period)
		if err != nil {
			return base, err
		}
		b.BudgetType = core.Custom
		b.Start, b.End = start, end
	}

	if b.Category, err = c.CategoryPK(ctx, entry.Category); err != nil {
		return base, err
	}
	return b, nil
}

// CategoryPK resolves a displayed category name. The top name resolves to
// no category.
func (c *EntriesConverter) CategoryPK(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == core.TopCategoryName {
		return 0, nil
	}
	cats, err := c.categories.GetAll(ctx, repository.Where{"name": name})
	if err != nil {
		return 0, fmt.Errorf("find category %q: %w", name, err)
	}
	switch len(cats) {
	case 0:
		return 0, &core.ValidationError{Field: "category", Err: fmt.Errorf("%w: %q", core.ErrUnknownCategory, name)}
	case 1:
		return cats[0].PK, nil
	default:
		return 0, fmt.Errorf("category %q is stored %d times", name, len(cats))
	}
}

func (c *EntriesConverter) categoryName(ctx context.Context, pk int64) (string, error) {
	if pk == 0 {
		return core.TopCategoryName, nil
	}
	cat, ok, err := c.categories.Get(ctx, pk)
	if err != nil {
		return "", fmt.Errorf("get category %d: %w", pk, err)
	}
	if !ok {
		return core.TopCategoryName, nil
	}
	return cat.Name, nil
}

// ValidateCategoryName trims name and rejects empty and reserved names.
func ValidateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", &core.ValidationError{Field: "category", Err: core.ErrEmptyCategoryName}
	case name == core.TopCategoryName:
		return "", &core.ValidationError{Field: "category", Err: fmt.Errorf("%w: %q", core.ErrReservedName, name)}
	}
	return name, nil
}

// relabel moves a validation error to another field. Other errors pass
// through unchanged.
func relabel(err error, field string) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return &core.ValidationError{Field: field, Err: ve.Err}
	}
	return err
}
