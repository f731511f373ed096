package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the storage and wire form of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar date anchored at local midnight. It never carries a
// meaningful time of day and is never converted across zones.
type Date struct {
	time.Time
}

// Clock returns the current instant; overridden in tests.
type Clock func() time.Time

// NewDate creates a new Date from year, month, day in the local calendar.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)}
}

// ParseDate reads a YYYY-MM-DD string as a local calendar date.
func ParseDate(s string) (Date, error) {
	return ParseDateIn(s, time.Local)
}

// ParseDateIn reads a YYYY-MM-DD string as a calendar date in loc.
func ParseDateIn(s string, loc *time.Location) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Today is the local calendar date of now.
func Today(now Clock) Date {
	if now == nil {
		now = time.Now
	}
	t := now()
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display renders the date for people, e.g. "Jan 31, 2024".
func (d Date) Display() string {
	return d.Format("Jan 2, 2006")
}

// MonthKey is the zero-padded YYYY-MM bucket of the date. It reads the
// calendar fields directly so the bucket never moves across midnight.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year(), d.Month())
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.String() < other.String()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthKeyLabel turns "2024-01" into "January 2024". Malformed keys are
// returned unchanged.
func MonthKeyLabel(key string) string {
	year, month, ok := splitMonthKey(key)
	if !ok {
		return key
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local).Format("January 2006")
}

func splitMonthKey(key string) (int, int, bool) {
	y, m, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}
