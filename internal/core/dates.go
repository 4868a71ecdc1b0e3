package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"

	periodSeparator = " - "
)

// ParseDateTime reads a local "YYYY-MM-DD hh:mm:ss" timestamp.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field: "date",
			Err:   fmt.Errorf("%w: %q, need YYYY-MM-DD hh:mm:ss", ErrInvalidDate, s),
		}
	}
	return t, nil
}

// FormatDateTime renders t in local time rounded to the nearest second.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Round(time.Second).Format(DateTimeLayout)
}

// ParsePeriod reads a custom budget window "YYYY-MM-DD - YYYY-MM-DD".
// Both days are taken at local midnight and end must be after start.
func ParsePeriod(s string) (start, end time.Time, err error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), periodSeparator)
	if !ok {
		return time.Time{}, time.Time{}, invalidPeriod(s)
	}
	start, err = time.ParseInLocation(DateLayout, strings.TrimSpace(from), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, invalidPeriod(s)
	}
	end, err = time.ParseInLocation(DateLayout, strings.TrimSpace(to), time.Local)
	if err != nil || !end.After(start) {
		return time.Time{}, time.Time{}, invalidPeriod(s)
	}
	return start, end, nil
}

// FormatPeriod renders a custom budget window as ParsePeriod reads it.
func FormatPeriod(start, end time.Time) string {
	return start.In(time.Local).Format(DateLayout) + periodSeparator + end.In(time.Local).Format(DateLayout)
}

func invalidPeriod(s string) error {
	return &ValidationError{
		Field: "period",
		Err:   fmt.Errorf("%w: %q, need Daily, Weekly, Monthly or YYYY-MM-DD - YYYY-MM-DD", ErrInvalidPeriod, s),
	}
}
