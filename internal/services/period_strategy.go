// This file implements one window strategy per budget type. Each special
// type (daily, weekly, monthly) derives its window from the current time;
// custom budgets keep the window the user gave them.

package services

import (
	"fmt"
	"time"

	"bookkeeper/internal/core"
)

// PeriodStrategy computes the window of a budget of one type.
type PeriodStrategy interface {
	// Window returns the [start, end) window containing now. ok is false
	// when the type does not derive its window from the calendar.
	Window(now time.Time) (start, end time.Time, ok bool)
}

// DailyPeriod spans the local calendar day.
type DailyPeriod struct{}

func (DailyPeriod) Window(now time.Time) (time.Time, time.Time, bool) {
	start := midnight(now)
	y, m, d := start.Date()
	return start, time.Date(y, m, d+1, 0, 0, 0, 0, start.Location()), true
}

// WeeklyPeriod spans the ISO week, Monday to Monday.
type WeeklyPeriod struct{}

func (WeeklyPeriod) Window(now time.Time) (time.Time, time.Time, bool) {
	day := midnight(now)
	// Weekday counts from Sunday; ISO weeks start on Monday.
	sinceMonday := (int(day.Weekday()) + 6) % 7
	y, m, d := day.Date()
	start := time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, day.Location())
	return start, time.Date(y, m, d-sinceMonday+7, 0, 0, 0, 0, day.Location()), true
}

// MonthlyPeriod spans the calendar month.
type MonthlyPeriod struct{}

func (MonthlyPeriod) Window(now time.Time) (time.Time, time.Time, bool) {
	local := now.In(time.Local)
	y, m, _ := local.Date()
	// time.Date normalizes month 13 into January of the next year.
	return time.Date(y, m, 1, 0, 0, 0, 0, time.Local), time.Date(y, m+1, 1, 0, 0, 0, 0, time.Local), true
}

// CustomPeriod leaves the persisted window untouched.
type CustomPeriod struct{}

func (CustomPeriod) Window(time.Time) (time.Time, time.Time, bool) {
	return time.Time{}, time.Time{}, false
}

func midnight(t time.Time) time.Time {
	local := t.In(time.Local)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// periodStrategies maps budget types to their window strategies.
var periodStrategies = map[core.BudgetType]PeriodStrategy{
	core.Daily:   DailyPeriod{},
	core.Weekly:  WeeklyPeriod{},
	core.Monthly: MonthlyPeriod{},
	core.Custom:  CustomPeriod{},
}

// GetPeriodStrategy returns the strategy for a budget type.
func GetPeriodStrategy(t core.BudgetType) (PeriodStrategy, error) {
	s, ok := periodStrategies[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBudgetType, t)
	}
	return s, nil
}

// RecomputePeriod moves the window of a special budget to the one
// containing now. Custom budgets are left as they are.
func RecomputePeriod(b *core.Budget, now time.Time) error {
	s, err := GetPeriodStrategy(b.BudgetType)
	if err != nil {
		return fmt.Errorf("budget %d: %w", b.PK, err)
	}
	if start, end, ok := s.Window(now); ok {
		b.Start, b.End = start, end
	}
	return nil
}

// SetBudgetType switches b to a special type and recomputes its window.
// Custom is rejected: custom budgets are created with an explicit window.
func SetBudgetType(b *core.Budget, t core.BudgetType, now time.Time) error {
	if !t.IsSpecial() {
		return &core.ValidationError{
			Field: "period",
			Err:   fmt.Errorf("%w: %q cannot be assigned, only %v", core.ErrUnknownBudgetType, t, core.SpecialBudgetTypes),
		}
	}
	b.BudgetType = t
	return RecomputePeriod(b, now)
}
