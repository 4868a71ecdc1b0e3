package presenter

import (
	"context"

	"bookkeeper/internal/services"
)

// fakeList records what the presenter draws and keeps the callbacks it
// registers so tests can play the user.
type fakeList[E any] struct {
	contents []E
	setAt    []int

	edited     EditedFunc[E]
	deleted    DeleteFunc
	added      AddFunc[E]
	getAllowed GetAllowedFunc
	getDefault GetDefaultFunc[E]
}

func (l *fakeList[E]) SetContents(entries []E) {
	l.contents = append([]E(nil), entries...)
}

func (l *fakeList[E]) SetAtPosition(position int, entry E) {
	l.setAt = append(l.setAt, position)
	l.contents[position] = entry
}

func (l *fakeList[E]) ConnectEdited(cb EditedFunc[E])         { l.edited = cb }
func (l *fakeList[E]) ConnectDelete(cb DeleteFunc)            { l.deleted = cb }
func (l *fakeList[E]) ConnectAdd(cb AddFunc[E])               { l.added = cb }
func (l *fakeList[E]) ConnectGetAllowed(cb GetAllowedFunc)    { l.getAllowed = cb }
func (l *fakeList[E]) ConnectGetDefault(cb GetDefaultFunc[E]) { l.getDefault = cb }

type fakeBudgets struct {
	fakeList[BudgetEntry]
	statuses map[int]services.Status
}

func (b *fakeBudgets) SetStatus(position int, status services.Status) {
	if b.statuses == nil {
		b.statuses = make(map[int]services.Status)
	}
	b.statuses[position] = status
}

type fakeView struct {
	expenses   fakeList[ExpenseEntry]
	categories fakeList[CategoryEntry]
	budgets    fakeBudgets
	started    bool
}

func (v *fakeView) Expenses() EntriesView[ExpenseEntry]    { return &v.expenses }
func (v *fakeView) Categories() EntriesView[CategoryEntry] { return &v.categories }
func (v *fakeView) Budgets() BudgetsView                   { return &v.budgets }

func (v *fakeView) Start(context.Context) error {
	v.started = true
	return nil
}
