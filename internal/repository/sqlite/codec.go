package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bookkeeper/internal/repository"
)

// timestampLayout keeps timestamps readable in the file and exact to the
// nanosecond. Values are always written in the local zone so equal
// instants produce equal text.
const timestampLayout = "2006-01-02 15:04:05.000000000 -07:00"

const day = 24 * time.Hour

func columnType(t repository.FieldType) string {
	switch t {
	case repository.Integer:
		return "INTEGER"
	case repository.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

// encode converts a normalized field value into its column value.
func encode(t repository.FieldType, nullable bool, v any) (any, error) {
	switch t {
	case repository.Integer:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("encode %s: unexpected %T", t, v)
		}
		if nullable && n == 0 {
			return nil, nil
		}
		return n, nil
	case repository.Float:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("encode %s: unexpected %T", t, v)
		}
		return f, nil
	case repository.Text:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("encode %s: unexpected %T", t, v)
		}
		return s, nil
	case repository.Timestamp:
		ts, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("encode %s: unexpected %T", t, v)
		}
		if ts.IsZero() {
			return nil, nil
		}
		return ts.In(time.Local).Format(timestampLayout), nil
	case repository.Duration:
		d, ok := v.(time.Duration)
		if !ok {
			return nil, fmt.Errorf("encode %s: unexpected %T", t, v)
		}
		return encodeDuration(d), nil
	}
	return nil, fmt.Errorf("encode: unsupported field type %s", t)
}

// scanTarget returns a destination for rows.Scan suited to type t.
func scanTarget(t repository.FieldType) any {
	switch t {
	case repository.Integer:
		return new(sql.NullInt64)
	case repository.Float:
		return new(sql.NullFloat64)
	default:
		return new(sql.NullString)
	}
}

// decode converts a scanned destination back into the canonical value.
// NULL becomes the zero value of the type.
func decode(t repository.FieldType, dst any) (any, error) {
	switch t {
	case repository.Integer:
		return dst.(*sql.NullInt64).Int64, nil
	case repository.Float:
		return dst.(*sql.NullFloat64).Float64, nil
	case repository.Text:
		return dst.(*sql.NullString).String, nil
	case repository.Timestamp:
		ns := dst.(*sql.NullString)
		if !ns.Valid || ns.String == "" {
			return time.Time{}, nil
		}
		ts, err := time.Parse(timestampLayout, ns.String)
		if err != nil {
			return nil, fmt.Errorf("decode timestamp %q: %w", ns.String, err)
		}
		return ts.Local(), nil
	case repository.Duration:
		ns := dst.(*sql.NullString)
		if !ns.Valid || ns.String == "" {
			return time.Duration(0), nil
		}
		return decodeDuration(ns.String)
	}
	return nil, fmt.Errorf("decode: unsupported field type %s", t)
}

// encodeDuration stores d as "days seconds nanoseconds". Days may be
// negative; seconds and nanoseconds are always non-negative. The last field
// is nanoseconds, not microseconds, so every time.Duration decodes back
// unchanged.
func encodeDuration(d time.Duration) string {
	days := int64(d / day)
	rem := d % day
	if rem < 0 {
		days--
		rem += day
	}
	secs := int64(rem / time.Second)
	nanos := int64(rem % time.Second)
	return fmt.Sprintf("%d %d %d", days, secs, nanos)
}

func decodeDuration(s string) (time.Duration, error) {
	var days, secs, nanos int64
	if n, err := fmt.Sscanf(strings.TrimSpace(s), "%d %d %d", &days, &secs, &nanos); err != nil || n != 3 {
		return 0, fmt.Errorf("decode duration %q: want \"days seconds nanoseconds\"", s)
	}
	return time.Duration(days)*day + time.Duration(secs)*time.Second + time.Duration(nanos), nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
