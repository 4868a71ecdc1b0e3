package console

import (
	"bookkeeper/internal/presenter"
	"bookkeeper/internal/services"
)

// list holds what the presenter last drew and the callbacks it registered.
type list[E any] struct {
	entries []E

	edited     presenter.EditedFunc[E]
	deleted    presenter.DeleteFunc
	added      presenter.AddFunc[E]
	getAllowed presenter.GetAllowedFunc
	getDefault presenter.GetDefaultFunc[E]
}

func (l *list[E]) SetContents(entries []E) {
	l.entries = append(l.entries[:0], entries...)
}

func (l *list[E]) SetAtPosition(position int, entry E) {
	if position >= 0 && position < len(l.entries) {
		l.entries[position] = entry
	}
}

func (l *list[E]) ConnectEdited(cb presenter.EditedFunc[E])         { l.edited = cb }
func (l *list[E]) ConnectDelete(cb presenter.DeleteFunc)            { l.deleted = cb }
func (l *list[E]) ConnectAdd(cb presenter.AddFunc[E])               { l.added = cb }
func (l *list[E]) ConnectGetAllowed(cb presenter.GetAllowedFunc)    { l.getAllowed = cb }
func (l *list[E]) ConnectGetDefault(cb presenter.GetDefaultFunc[E]) { l.getDefault = cb }

type budgetList struct {
	list[presenter.BudgetEntry]
	statuses map[int]services.Status
}

func (b *budgetList) SetContents(entries []presenter.BudgetEntry) {
	b.list.SetContents(entries)
	b.statuses = make(map[int]services.Status, len(entries))
}

func (b *budgetList) SetStatus(position int, status services.Status) {
	if b.statuses == nil {
		b.statuses = make(map[int]services.Status)
	}
	b.statuses[position] = status
}
