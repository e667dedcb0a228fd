package compliance

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date without time-of-day or zone
// =============================================================================

// Date is a calendar date. Attendance is keyed by civil dates, not instants:
// a time entry belongs to "2025-03-10" regardless of what zone the punches
// were recorded in.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf extracts the calendar date from a timestamp, using the timestamp's
// own location so a punch at 23:30 local does not slide into the next day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// DayName returns the English weekday name ("Monday", ...).
func (d Date) DayName() string { return d.Weekday().String() }

// ISOWeek returns the ISO 8601 year and week number.
func (d Date) ISOWeek() (year, week int) { return d.t.ISOWeek() }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// Time returns the date as a UTC midnight instant, for storage formatting.
func (d Date) Time() time.Time { return d.t }

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive [From, To] date range.
type Period struct {
	From Date
	To   Date
}

// Validate rejects ranges whose end precedes their start.
func (p Period) Validate() error {
	if p.To.Before(p.From) {
		return ErrEmptyRange
	}
	return nil
}

// Contains returns true if the date is within the period [From, To].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.From) && d.BeforeOrEqual(p.To)
}

// Days returns every date in the period in ascending order.
func (p Period) Days() []Date {
	var days []Date
	for current := p.From; current.BeforeOrEqual(p.To); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string { return "[" + p.From.String() + ", " + p.To.String() + "]" }

// =============================================================================
// TIME OF DAY - Wall-clock time, minutes since midnight
// =============================================================================

// TimeOfDay is a wall-clock time-of-day expressed as minutes since midnight.
// Schedule windows and arrival delays are civil-time comparisons: "arrived at
// 09:20 against a 09:00 start" must come out to 20 minutes whatever the date
// or UTC offset of the underlying timestamps.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// TimeOfDayOf extracts the wall-clock component of a timestamp in the
// timestamp's own location. Seconds are truncated.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q (use HH:MM)", s)
}

func (td TimeOfDay) Hour() int   { return int(td) / 60 }
func (td TimeOfDay) Minute() int { return int(td) % 60 }

// MinutesSince returns the signed minute difference td - other.
func (td TimeOfDay) MinutesSince(other TimeOfDay) int { return int(td) - int(other) }

func (td TimeOfDay) Before(other TimeOfDay) bool { return td < other }
func (td TimeOfDay) After(other TimeOfDay) bool  { return td > other }

func (td TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", td.Hour(), td.Minute())
}

// =============================================================================
// CLOCK - Injected "now" capability
// =============================================================================

// Clock supplies the current date. The evaluator needs "today" to tell an
// in-progress session from a forgotten punch; injecting it keeps evaluation
// deterministic and testable.
type Clock interface {
	Now() time.Time
	Today() Date
}

// SystemClock reads the host clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
func (SystemClock) Today() Date    { return DateOf(time.Now()) }

// FixedClock always reports the same instant. For tests and replays.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
func (c FixedClock) Today() Date    { return DateOf(c.At) }
