/*
evaluate.go - Daily compliance evaluation

PURPOSE:
  Turns one day's expected window plus the employee's actual punches into
  a single ComplianceRecord. This is the heart of the engine: every edge
  case the presentation layers used to fudge (missing punches, open
  sessions, partial breaks, non-working days) is decided here, once.

CLASSIFICATION ORDER (mutually exclusive):
  1. DIA_NO_LABORAL  - window says the day is off; nothing else matters
  2. AUSENTE         - working day with no entry / no clock-in
  3. PUNTUAL         - arrived within the policy grace of expected start
  4. RETRASO_*       - late tiers by delay minutes (leve/moderado/grave)

CIVIL-TIME RULE:
  Arrival delay compares the wall-clock time-of-day of the punch against
  the expected start. Never an epoch difference: a punch stored with a
  different UTC offset than the schedule must not manufacture delay.

FAILURE SEMANTICS:
  Malformed entries (clock-out before clock-in, inverted or dangling
  breaks) return InvalidTimeEntryError. No clamping; the caller decides
  whether to skip or surface the corrupt record.

SEE ALSO:
  - types.go: TierPolicy, status enums
  - report.go: range pipeline applying skip-and-report
*/
package compliance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluator computes per-day compliance records under a tier policy.
// The zero value is not usable; construct with NewEvaluator.
type Evaluator struct {
	Policy TierPolicy
}

func NewEvaluator(policy TierPolicy) *Evaluator {
	return &Evaluator{Policy: policy}
}

// Evaluate derives the compliance record for one day. entry is nil when no
// punch exists for the date; today tells an in-progress session from a
// forgotten punch. Evaluation is pure: the same inputs always produce the
// same record.
func (ev *Evaluator) Evaluate(window ScheduleWindow, entry *TimeEntry, date Date, today Date) (ComplianceRecord, error) {
	// A row without a clock-in carries no usable punch; the day reads the
	// same as no entry at all.
	if entry != nil && entry.ClockIn.IsZero() {
		entry = nil
	}
	if entry != nil {
		if err := validateEntry(entry); err != nil {
			return ComplianceRecord{}, err
		}
	}

	record := ComplianceRecord{
		Date:          date,
		DayName:       date.DayName(),
		IsWorkingDay:  window.IsWorkingDay,
		ExpectedStart: window.Start,
		ExpectedEnd:   window.End,
		ExpectedHours: window.ExpectedHours(),
	}

	if entry != nil {
		record.ClockIn = cloneTime(&entry.ClockIn)
		record.ClockOut = cloneTime(entry.ClockOut)
	}

	// Non-working day: no further checks, even if a punch exists.
	if !window.IsWorkingDay {
		record.ArrivalStatus = ArrivalNonWorking
		record.DepartureStatus = DepartureNone
		record.TotalHours = workedHours(entry)
		return record, nil
	}

	if entry == nil {
		record.ArrivalStatus = ArrivalAbsent
		record.DepartureStatus = DepartureNone
		return record, nil
	}

	// Arrival: wall-clock comparison, floored at zero (early arrivals are
	// simply punctual, not negative delay).
	delay := TimeOfDayOf(entry.ClockIn).MinutesSince(window.Start)
	if delay < 0 {
		delay = 0
	}
	record.ArrivalDelayMinutes = &delay
	record.ArrivalStatus = ev.Policy.Classify(delay)

	record.DepartureStatus = departureStatus(window, entry, date, today)
	record.TotalHours = workedHours(entry)

	if record.TotalHours != nil {
		diff := record.TotalHours.Sub(record.ExpectedHours).Round(2)
		record.HoursDifference = &diff
	}

	return record, nil
}

func departureStatus(window ScheduleWindow, entry *TimeEntry, date, today Date) DepartureStatus {
	if entry.ClockOut == nil {
		if date.Equal(today) {
			return DepartureInProgress
		}
		// A stuck punch on a past date must be surfaced, never silently
		// treated as zero hours.
		return DepartureIncomplete
	}
	if TimeOfDayOf(*entry.ClockOut).Before(window.End) {
		return DepartureEarly
	}
	return DepartureOnTime
}

// workedHours returns elapsed session time minus completed break time,
// in hours rounded to two decimals. Nil while the session is open.
func workedHours(entry *TimeEntry) *decimal.Decimal {
	if entry == nil || entry.ClockOut == nil {
		return nil
	}
	worked := entry.ClockOut.Sub(entry.ClockIn) - entry.BreakDuration()
	hours := decimal.NewFromFloat(worked.Minutes()).Div(decimal.NewFromInt(60)).Round(2)
	return &hours
}

// validateEntry enforces timestamp ordering. An incomplete break on an
// otherwise closed entry is corrupt: the dangling break would silently
// inflate worked hours if ignored.
func validateEntry(entry *TimeEntry) error {
	invalid := func(reason string) error {
		return &InvalidTimeEntryError{EmployeeID: entry.EmployeeID, Date: entry.Date, Reason: reason}
	}

	if entry.ClockOut != nil && !entry.ClockOut.After(entry.ClockIn) {
		return invalid("clock-out is not after clock-in")
	}
	if entry.BreakEnd != nil && entry.BreakStart == nil {
		return invalid("break end without break start")
	}
	if entry.BreakStart != nil && entry.BreakEnd != nil && !entry.BreakEnd.After(*entry.BreakStart) {
		return invalid("break end is not after break start")
	}
	if entry.ClockOut != nil && entry.BreakStart != nil && entry.BreakEnd == nil {
		return invalid("closed entry with an open break")
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
