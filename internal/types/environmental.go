package types

import (
	"fmt"
	"time"
)

// Wire formats used by the day files and everywhere the records travel.
const (
	// TimestampLayout is the record timestamp format, e.g. "07/03/2025 14:05".
	TimestampLayout = "02/01/2006 15:04"
	// DateLayout is the canonical calendar-day format, e.g. "07/03/2025".
	DateLayout = "02/01/2006"
)

// Variant identifies which of the two per-day file families a piece of
// content belongs to.
type Variant int

const (
	// VariantPrimary is the indoor series (DD_MM_YYYY.csv).
	VariantPrimary Variant = iota
	// VariantSecondary is the outdoor series (DD_MM_YYYY_outside.csv).
	VariantSecondary
)

func (v Variant) String() string {
	switch v {
	case VariantPrimary:
		return "primary"
	case VariantSecondary:
		return "secondary"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// DateKey is a calendar date used to index cached day files. It is a value
// type suitable for use as a map key; ordering is by calendar value, never
// by its textual form.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDateKey builds a DateKey from calendar components.
func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKey{Year: year, Month: month, Day: day}
}

// DateKeyFromTime truncates a time to its calendar day.
func DateKeyFromTime(t time.Time) DateKey {
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDateKey parses the canonical "DD/MM/YYYY" form. Impossible calendar
// dates are rejected.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return DateKey{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateKeyFromTime(t), nil
}

// String renders the canonical "DD/MM/YYYY" form.
func (k DateKey) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", k.Day, k.Month, k.Year)
}

// Time returns midnight UTC of the day.
func (k DateKey) Time() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether k falls earlier on the calendar than other.
func (k DateKey) Before(other DateKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

// After reports whether k falls later on the calendar than other.
func (k DateKey) After(other DateKey) bool {
	return other.Before(k)
}

// Next returns the following calendar day, rolling over months and years.
func (k DateKey) Next() DateKey {
	return DateKeyFromTime(k.Time().AddDate(0, 0, 1))
}

// IsZero reports whether k is the zero value.
func (k DateKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0 && k.Day == 0
}

// Valid reports whether k names a real calendar date.
func (k DateKey) Valid() bool {
	t := k.Time()
	return t.Year() == k.Year && t.Month() == k.Month && t.Day() == k.Day
}

// MarshalText implements encoding.TextMarshaler so DateKey can serve as a
// JSON map key and field value.
func (k DateKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DateKey) UnmarshalText(text []byte) error {
	parsed, err := ParseDateKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Record is one environmental reading parsed from a day file. FeelsLike is
// derived after parsing and is only meaningful on the primary series.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	SampleSize  int       `json:"sample_size"`
	Temperature float64   `json:"temperature"`
	Pressure    float64   `json:"pressure"`
	Humidity    float64   `json:"humidity"`
	FeelsLike   float64   `json:"feels_like"`
}

// DayContent is the raw decoded text of one cached day file.
type DayContent struct {
	Date    DateKey `json:"date"`
	Content string  `json:"content"`
}

// Snapshot is a deep copy of the cache state delivered with a completed
// acquisition run. Mutating the cache afterward never changes a snapshot.
type Snapshot struct {
	Primary   map[DateKey]string `json:"primary"`
	Secondary map[DateKey]string `json:"secondary"`
	Dates     []DateKey          `json:"dates"`
}
