package diet

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const dayLayout = "2006-01-02"

// CalendarDay is a day bucket: a UTC midnight with no time-of-day. Every
// ledger and weight key goes through Day so "today" does not depend on the
// caller's time zone. The zero value is not a valid day.
type CalendarDay struct{ t time.Time }

// Day truncates t to midnight UTC of its UTC calendar date.
func Day(t time.Time) CalendarDay {
	u := t.UTC()
	return CalendarDay{time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// DayOrToday buckets t, or now when t is nil.
func DayOrToday(t *time.Time, now time.Time) CalendarDay {
	if t == nil {
		return Day(now)
	}
	return Day(*t)
}

// ParseDay parses "YYYY-MM-DD".
func ParseDay(s string) (CalendarDay, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return CalendarDay{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return CalendarDay{t}, nil
}

func (d CalendarDay) Time() time.Time           { return d.t }
func (d CalendarDay) IsZero() bool              { return d.t.IsZero() }
func (d CalendarDay) String() string            { return d.t.Format(dayLayout) }
func (d CalendarDay) AddDays(n int) CalendarDay { return CalendarDay{d.t.AddDate(0, 0, n)} }
func (d CalendarDay) Before(o CalendarDay) bool { return d.t.Before(o.t) }
func (d CalendarDay) After(o CalendarDay) bool  { return d.t.After(o.t) }
func (d CalendarDay) Equal(o CalendarDay) bool  { return d.t.Equal(o.t) }

func (d CalendarDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *CalendarDay) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+dayLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.t = t
	return nil
}

// ScanDate implements pgtype.DateScanner for PostgreSQL date columns.
func (d *CalendarDay) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.t = time.Time{}
		return nil
	}
	*d = Day(v.Time)
	return nil
}

// DateValue implements pgtype.DateValuer.
func (d CalendarDay) DateValue() (pgtype.Date, error) {
	return pgtype.Date{Time: d.t, Valid: !d.t.IsZero()}, nil
}

// Scan implements sql.Scanner; SQLite stores days as YYYY-MM-DD text.
func (d *CalendarDay) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.t = time.Time{}
		return nil
	case time.Time:
		*d = Day(v)
		return nil
	case string:
		return d.parseText(v)
	case []byte:
		return d.parseText(string(v))
	}
	return fmt.Errorf("cannot scan %T into CalendarDay", src)
}

func (d *CalendarDay) parseText(s string) error {
	if len(s) > len(dayLayout) {
		s = s[:len(dayLayout)]
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d CalendarDay) Value() (driver.Value, error) {
	if d.t.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}
