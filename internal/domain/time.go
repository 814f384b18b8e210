package domain

import (
	"fmt"
	"time"
)

// ParseTime normalizes the timestamp representations that cross the module
// boundary (native times, ISO-8601 strings, date-only strings) to UTC.
// Every comparison inside the module works on the result of this function.
func ParseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("parse time: %w", ErrValidation)
		}
		return t.UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("parse time %q: %w", t, ErrValidation)
	default:
		return time.Time{}, fmt.Errorf("parse time: unsupported type %T: %w", v, ErrValidation)
	}
}

// EndOfDay returns the last representable millisecond of t's calendar day in
// t's location. Discount codes stay valid through the whole expiry day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999*int(time.Millisecond), t.Location())
}
