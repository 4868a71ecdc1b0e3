package core

import (
	"fmt"
	"time"
)

// TopCategoryName is displayed for a missing category reference: the
// virtual root of the category forest.
const TopCategoryName = "-"

const (
	Daily   BudgetType = "Daily"
	Weekly  BudgetType = "Weekly"
	Monthly BudgetType = "Monthly"
	Custom  BudgetType = "Custom"
)

type (
	// BudgetType selects how a budget window is derived.
	BudgetType string

	// Expense is a single spending record. Cost is in minor currency units.
	// Category is 0 for uncategorized.
	Expense struct {
		PK          int64
		Cost        int64
		Category    int64
		ExpenseDate time.Time
		AddedDate   time.Time
		Comment     string
	}

	// Category is a node of the category forest. Parent is 0 for a
	// top-level category.
	Category struct {
		PK     int64
		Name   string
		Parent int64
	}

	// Budget limits spending in a category over [Start, End). CostLimit 0
	// means unlimited. For the special types Start and End are derived from
	// the current time; only Custom budgets own them.
	Budget struct {
		PK         int64
		CostLimit  int64
		Category   int64
		Start      time.Time
		End        time.Time
		BudgetType BudgetType
	}
)

// SpecialBudgetTypes are the calendar-derived types, in display order.
var SpecialBudgetTypes = []BudgetType{Daily, Weekly, Monthly}

func (t BudgetType) String() string {
	return string(t)
}

// IsValid reports whether t is a known budget type.
func (t BudgetType) IsValid() bool {
	switch t {
	case Daily, Weekly, Monthly, Custom:
		return true
	default:
		return false
	}
}

// IsSpecial reports whether the window of t is derived from the calendar.
func (t BudgetType) IsSpecial() bool {
	return t == Daily || t == Weekly || t == Monthly
}

// ParseBudgetType converts a stored or displayed name into a BudgetType.
func ParseBudgetType(s string) (BudgetType, error) {
	t := BudgetType(s)
	if !t.IsValid() {
		return "", &ValidationError{Field: "period", Err: fmt.Errorf("%w: %q", ErrUnknownBudgetType, s)}
	}
	return t, nil
}

// IsTopLevel reports whether c has no parent.
func (c Category) IsTopLevel() bool {
	return c.Parent == 0
}

// Contains reports whether instant t lies strictly inside the budget window.
func (b Budget) Contains(t time.Time) bool {
	return t.After(b.Start) && t.Before(b.End)
}
