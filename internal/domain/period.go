package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO date format used by the dataset and the API.
const DateLayout = "2006-01-02"

// Period is a calendar month, the granularity of every depreciation figure.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod creates a period for the given year and month.
func NewPeriod(year int, month time.Month) Period {
	return PeriodOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a "YYYY-MM" key.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Period{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidPeriodFormat, s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriodFormat, s)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriodFormat, s)
	}

	return Period{Year: year, Month: time.Month(month)}, nil
}

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is the zero period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// FirstDay returns midnight UTC on the first day of the period.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the period n months after p (n may be negative).
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.FirstDay().AddDate(0, n, 0))
}

// Compare returns -1, 0 or 1 depending on whether p is before, equal to
// or after other.
func (p Period) Compare(other Period) int {
	a, b := p.index(), other.index()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether p is strictly before other.
func (p Period) Before(other Period) bool {
	return p.Compare(other) < 0
}

// After reports whether p is strictly after other.
func (p Period) After(other Period) bool {
	return p.Compare(other) > 0
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Period) index() int {
	return p.Year*12 + int(p.Month) - 1
}

// MonthsBetweenInclusive counts the months from start to end, both included.
// It fails with ErrInvalidPeriod when end precedes start.
func MonthsBetweenInclusive(start, end Period) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("%w: %s is before %s", ErrInvalidPeriod, end, start)
	}
	return end.index() - start.index() + 1, nil
}

// ParseDate parses an ISO "YYYY-MM-DD" date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// DaysBetween returns the whole days from a to b, rounded up.
func DaysBetween(a, b time.Time) int {
	return int(math.Ceil(b.Sub(a).Hours() / 24))
}

// BusinessDaysBetween counts Monday to Friday days in [start, end].
func BusinessDaysBetween(start, end time.Time) int {
	days := 0
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		if wd := cur.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

// Quarter is a calendar quarter such as "2025-Q3".
type Quarter struct {
	Year int
	Q    int
}

// ParseQuarter parses a "YYYY-Qn" key.
func ParseQuarter(s string) (Quarter, error) {
	s = strings.TrimSpace(s)
	year, q, ok := strings.Cut(s, "-Q")
	if !ok {
		return Quarter{}, fmt.Errorf("%w: %q (want YYYY-Qn)", ErrInvalidQuarter, s)
	}

	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return Quarter{}, fmt.Errorf("%w: %q", ErrInvalidQuarter, s)
	}

	n, err := strconv.Atoi(q)
	if err != nil || n < 1 || n > 4 {
		return Quarter{}, fmt.Errorf("%w: %q", ErrInvalidQuarter, s)
	}

	return Quarter{Year: y, Q: n}, nil
}

// String formats the quarter as "YYYY-Qn".
func (q Quarter) String() string {
	return fmt.Sprintf("%04d-Q%d", q.Year, q.Q)
}

// Start returns the first day of the quarter.
func (q Quarter) Start() time.Time {
	return time.Date(q.Year, time.Month((q.Q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the quarter.
func (q Quarter) End() time.Time {
	return q.Start().AddDate(0, 3, -1)
}

// Contains reports whether the date falls within the quarter.
func (q Quarter) Contains(t time.Time) bool {
	return !t.Before(q.Start()) && !t.After(q.End())
}
