/*
Package tracker provides the time clock: the write side of attendance.

PURPOSE:
  Implements the clock-in / break / clock-out state machine over the
  storage collaborator. Every mutation touches exactly one row, the
  (employee, date) entry; the store's uniqueness guarantee is what stops
  two concurrent clock-ins from both creating "today".

LIFECYCLE OF AN ENTRY:
  clock-in            creates the entry
  break-start/end     records the single optional break pair
  clock-out           closes the entry and derives total/overtime hours

DERIVATION ON CLOCK-OUT:
  total    = (clock-out - clock-in - completed break), hours, 2 decimals
  overtime = max(0, total - expected hours for the day's schedule window)
             All hours on a non-working day are overtime. With no schedule
             configured, overtime stays zero: no expectation, no excess.

SEE ALSO:
  - compliance/store.go: EntryStore contract
  - compliance/evaluate.go: read side judging these entries
*/
package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/compliance"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	ErrAlreadyClockedIn  = errors.New("already clocked in today")
	ErrNotClockedIn      = errors.New("not clocked in today")
	ErrAlreadyClockedOut = errors.New("already clocked out today")
	ErrBreakAlreadyTaken = errors.New("break already recorded today")
	ErrBreakOpen         = errors.New("break in progress, end it first")
	ErrNotOnBreak        = errors.New("no break in progress")
)

// =============================================================================
// TIME CLOCK
// =============================================================================

// TimeClock performs punch mutations for employees.
type TimeClock struct {
	Entries   compliance.EntryStore
	Employees compliance.EmployeeSource
	Schedules compliance.ScheduleSource
	Clock     compliance.Clock
}

func NewTimeClock(entries compliance.EntryStore, employees compliance.EmployeeSource, schedules compliance.ScheduleSource, clock compliance.Clock) *TimeClock {
	return &TimeClock{Entries: entries, Employees: employees, Schedules: schedules, Clock: clock}
}

// ClockIn opens today's entry for the employee. Exactly one entry may exist
// per (employee, date); a second clock-in returns ErrAlreadyClockedIn.
func (tc *TimeClock) ClockIn(ctx context.Context, employeeID string) (compliance.TimeEntry, error) {
	if _, err := tc.Employees.GetEmployee(ctx, employeeID); err != nil {
		return compliance.TimeEntry{}, err
	}

	now := tc.Clock.Now()
	entry := compliance.TimeEntry{
		EmployeeID: employeeID,
		Date:       compliance.DateOf(now),
		ClockIn:    now,
	}

	if err := tc.Entries.CreateTimeEntry(ctx, entry); err != nil {
		if errors.Is(err, compliance.ErrDuplicateEntry) {
			return compliance.TimeEntry{}, ErrAlreadyClockedIn
		}
		return compliance.TimeEntry{}, fmt.Errorf("clock in: %w", err)
	}
	return entry, nil
}

// ClockOut closes today's entry and derives total and overtime hours.
func (tc *TimeClock) ClockOut(ctx context.Context, employeeID string) (compliance.TimeEntry, error) {
	now := tc.Clock.Now()
	entry, err := tc.openEntry(ctx, employeeID)
	if err != nil {
		return compliance.TimeEntry{}, err
	}
	if entry.OnBreak() {
		return compliance.TimeEntry{}, ErrBreakOpen
	}

	entry.ClockOut = &now

	worked := now.Sub(entry.ClockIn) - entry.BreakDuration()
	total := decimal.NewFromFloat(worked.Minutes()).Div(decimal.NewFromInt(60)).Round(2)
	overtime := tc.overtime(ctx, employeeID, entry.Date, total)

	entry.TotalHours = &total
	entry.OvertimeHours = &overtime

	if err := tc.Entries.UpdateTimeEntry(ctx, entry); err != nil {
		return compliance.TimeEntry{}, fmt.Errorf("clock out: %w", err)
	}
	return entry, nil
}

// StartBreak records the start of the day's break.
func (tc *TimeClock) StartBreak(ctx context.Context, employeeID string) (compliance.TimeEntry, error) {
	now := tc.Clock.Now()
	entry, err := tc.openEntry(ctx, employeeID)
	if err != nil {
		return compliance.TimeEntry{}, err
	}
	if entry.BreakStart != nil {
		if entry.BreakEnd == nil {
			return compliance.TimeEntry{}, ErrBreakOpen
		}
		// One break pair per entry.
		return compliance.TimeEntry{}, ErrBreakAlreadyTaken
	}

	entry.BreakStart = &now
	if err := tc.Entries.UpdateTimeEntry(ctx, entry); err != nil {
		return compliance.TimeEntry{}, fmt.Errorf("start break: %w", err)
	}
	return entry, nil
}

// EndBreak records the end of the day's break.
func (tc *TimeClock) EndBreak(ctx context.Context, employeeID string) (compliance.TimeEntry, error) {
	now := tc.Clock.Now()
	entry, err := tc.openEntry(ctx, employeeID)
	if err != nil {
		return compliance.TimeEntry{}, err
	}
	if !entry.OnBreak() {
		return compliance.TimeEntry{}, ErrNotOnBreak
	}

	entry.BreakEnd = &now
	if err := tc.Entries.UpdateTimeEntry(ctx, entry); err != nil {
		return compliance.TimeEntry{}, fmt.Errorf("end break: %w", err)
	}
	return entry, nil
}

// Today returns today's entry for the employee, or nil if none exists yet.
func (tc *TimeClock) Today(ctx context.Context, employeeID string) (*compliance.TimeEntry, error) {
	entry, err := tc.Entries.GetTimeEntry(ctx, employeeID, tc.Clock.Today())
	if err != nil {
		if errors.Is(err, compliance.ErrEntryNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// openEntry fetches today's entry and rejects closed or missing sessions.
func (tc *TimeClock) openEntry(ctx context.Context, employeeID string) (compliance.TimeEntry, error) {
	entry, err := tc.Entries.GetTimeEntry(ctx, employeeID, tc.Clock.Today())
	if err != nil {
		if errors.Is(err, compliance.ErrEntryNotFound) {
			return compliance.TimeEntry{}, ErrNotClockedIn
		}
		return compliance.TimeEntry{}, err
	}
	if entry.ClockOut != nil {
		return compliance.TimeEntry{}, ErrAlreadyClockedOut
	}
	return entry, nil
}

// overtime computes hours beyond the scheduled expectation for the date.
func (tc *TimeClock) overtime(ctx context.Context, employeeID string, date compliance.Date, total decimal.Decimal) decimal.Decimal {
	employee, err := tc.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero
	}
	window, err := tc.Schedules.GetScheduleWindow(ctx, employee.DepartmentID, date.Weekday())
	if err != nil {
		return decimal.Zero
	}
	overtime := total.Sub(window.ExpectedHours())
	if overtime.IsNegative() {
		return decimal.Zero
	}
	return overtime.Round(2)
}
