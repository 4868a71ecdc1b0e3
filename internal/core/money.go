// Package core provides the bookkeeping records and the parsing and
// formatting rules for the values users type in.
//
// This file converts between display amounts ("12.34", "12,34") and
// integer minor currency units.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern accepts a whole number with an optional one or two digit
// fraction after a dot or comma. Signs and exponents are rejected.
var amountPattern = regexp.MustCompile(`^\d+([.,]\d{1,2})?$`)

// ParseAmount converts a display amount into minor units.
//
// Examples:
//
//	ParseAmount("1")     -> 100
//	ParseAmount("1.0")   -> 100
//	ParseAmount("1,01")  -> 101
//	ParseAmount("1.001") -> error
//	ParseAmount("-1.0")  -> error
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return 0, &ValidationError{Field: "cost", Err: fmt.Errorf("%w: %q", ErrInvalidAmount, s)}
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return 0, &ValidationError{Field: "cost", Err: fmt.Errorf("%w: %q", ErrInvalidAmount, s)}
	}
	minor := d.Shift(2)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(maxMinorUnits)) {
		return 0, &ValidationError{Field: "cost", Err: fmt.Errorf("%w: %q", ErrInvalidAmount, s)}
	}
	return minor.IntPart(), nil
}

const maxMinorUnits = 1<<63 - 1

// FormatAmount renders minor units with two fractional digits.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
