package db

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

const (
	DateLayout = "2006-01-02"
	// TimestampLayout is fixed-width so TEXT timestamps sort chronologically.
	TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// Timestamp renders t for binding into a timestamp column on either driver.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time scans timestamp columns: time.Time from postgres, text from sqlite.
type Time struct {
	time.Time
}

func (t *Time) Scan(src any) error {
	v, err := scanTime(src, TimestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00")
	if err != nil {
		return err
	}
	t.Time = v.UTC()
	return nil
}

func (t Time) Value() (driver.Value, error) {
	return Timestamp(t.Time), nil
}

// Date is a calendar day without time of day.
type Date struct {
	time.Time
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d *Date) Scan(src any) error {
	v, err := scanTime(src, DateLayout, time.RFC3339)
	if err != nil {
		return err
	}
	y, m, day := v.Date()
	d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("db: date must be a string: %w", err)
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func scanTime(src any, layouts ...string) (time.Time, error) {
	var s string
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return time.Time{}, fmt.Errorf("db: cannot scan NULL into time")
	default:
		return time.Time{}, fmt.Errorf("db: cannot scan %T into time", src)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("db: unrecognised time %q", s)
}
