package presenter

import (
	"context"

	"bookkeeper/internal/services"
)

// Entries are what the view draws: every value is already a display
// string. Model types never cross into the view.
type (
	ExpenseEntry struct {
		Date     string
		Cost     string
		Category string
		Comment  string
	}

	CategoryEntry struct {
		Category string
		Parent   string
	}

	BudgetEntry struct {
		Period    string
		CostLimit string
		Spent     string
		Category  string
	}
)

// Callbacks the view invokes. Positions index the list last passed to
// SetContents. A returned error is for the view to report; the presenter
// has already restored the displayed entry.
type (
	EditedFunc[E any]     func(ctx context.Context, position int, entry E) error
	DeleteFunc            func(ctx context.Context, positions []int) error
	AddFunc[E any]        func(ctx context.Context, entry E) error
	GetAllowedFunc        func(ctx context.Context, field string) ([]string, error)
	GetDefaultFunc[E any] func(ctx context.Context) (E, error)
)

// EntriesView is one list of entries on screen.
type EntriesView[E any] interface {
	SetContents(entries []E)
	SetAtPosition(position int, entry E)

	ConnectEdited(cb EditedFunc[E])
	ConnectDelete(cb DeleteFunc)
	ConnectAdd(cb AddFunc[E])
	ConnectGetAllowed(cb GetAllowedFunc)
	ConnectGetDefault(cb GetDefaultFunc[E])
}

// BudgetsView can also mark a budget as close to or over its limit.
type BudgetsView interface {
	EntriesView[BudgetEntry]
	SetStatus(position int, status services.Status)
}

// View is the whole user interface.
type View interface {
	Expenses() EntriesView[ExpenseEntry]
	Categories() EntriesView[CategoryEntry]
	Budgets() BudgetsView
	// Start runs the interaction loop until the user quits or ctx ends.
	Start(ctx context.Context) error
}
