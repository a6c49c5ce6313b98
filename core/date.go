package core

import (
	"bytes"
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
)

const DateLayout = "2006-01-02"

// Date is a nullable calendar date (Postgres `date`), serialized as "YYYY-MM-DD" or null.
type Date struct {
	Time  time.Time
	Valid bool
}

func DateFrom(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, errors.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateFrom(t), nil
}

func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

func (d Date) IsZero() bool { return !d.Valid }

// Before reports whether d is strictly before o. Invalid dates are never before anything.
func (d Date) Before(o Date) bool {
	return d.Valid && o.Valid && d.Time.Before(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.Errorf("invalid date %s", data)
	}
	s := string(data[1 : len(data)-1])
	if len(s) > len(DateLayout) { // accept full timestamps, keep the date part
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = DateFrom(t)
			return nil
		}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateFrom(v)
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return errors.Errorf("cannot scan %T into core.Date", value)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.String(), nil
}

// YearsUntil returns the number of whole years between d and t (eg: an age).
func (d Date) YearsUntil(t time.Time) int {
	if !d.Valid {
		return 0
	}
	years := t.Year() - d.Time.Year()
	if t.Month() < d.Time.Month() || (t.Month() == d.Time.Month() && t.Day() < d.Time.Day()) {
		years--
	}
	return years
}
