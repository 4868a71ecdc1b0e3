package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrReservedName      = errors.New("reserved category name")
	ErrDuplicateCategory = errors.New("category name must be unique")
	ErrUnknownCategory   = errors.New("no such category")
	ErrUnknownBudgetType = errors.New("unknown budget type")
	ErrCategoryCycle     = errors.New("category cannot be its own ancestor")
	ErrSpecialBudget     = errors.New("special budgets cannot be deleted")
	ErrIndentation       = errors.New("unindent does not match any outer indentation level")
)

// ValidationError is bad user input. It is returned before any store
// write, so the caller can restore the previously displayed value.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
