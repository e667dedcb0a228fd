/*
errors.go - Centralized error types for the compliance engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  The tracker and api packages wrap these with their own context.

ERROR CATEGORIES:
  1. Resolution errors  - missing schedule or directory records
  2. Validation errors  - malformed time entries, bad ranges, bad policies
  3. Storage errors     - propagated unchanged from the store

RECOVERY CONTRACT:
  ErrScheduleNotFound and InvalidTimeEntryError are per-day conditions:
  the report pipeline flags the day and keeps going. ErrEmptyRange is
  rejected before any evaluation begins.

SEE ALSO:
  - report.go: skip-and-report handling
  - store/: storage collaborators returning these sentinels
*/
package compliance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrScheduleNotFound is returned when no schedule window exists for a
	// (department, weekday) pair. Recoverable: the day is treated as
	// unknown/non-working rather than aborting the range.
	ErrScheduleNotFound = errors.New("schedule window not found")

	// ErrInvalidTimeEntry is returned when a time entry's timestamps are
	// malformed (clock-out before clock-in, dangling or inverted break).
	ErrInvalidTimeEntry = errors.New("invalid time entry")

	// ErrEmptyRange is returned when a date range ends before it starts.
	ErrEmptyRange = errors.New("invalid range: end before start")

	// ErrInvalidPolicy is returned when tier boundaries are not ordered.
	ErrInvalidPolicy = errors.New("invalid tier policy")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrDepartmentNotFound is returned when a referenced department doesn't exist.
	ErrDepartmentNotFound = errors.New("department not found")

	// ErrEntryNotFound is returned when no time entry exists for a date.
	ErrEntryNotFound = errors.New("time entry not found")

	// ErrDuplicateEntry is returned when a second entry for the same
	// (employee, date) is created. The storage layer's unique constraint is
	// what actually stops the double clock-in race; this is its face.
	ErrDuplicateEntry = errors.New("time entry already exists for date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidTimeEntryError reports which entry is corrupt and why. The caller
// decides whether to skip the day or surface the record; the evaluator
// never clamps bad timestamps into plausible ones.
type InvalidTimeEntryError struct {
	EmployeeID string
	Date       Date
	Reason     string
}

func (e *InvalidTimeEntryError) Error() string {
	return fmt.Sprintf("invalid time entry for %s on %s: %s", e.EmployeeID, e.Date, e.Reason)
}

func (e *InvalidTimeEntryError) Unwrap() error { return ErrInvalidTimeEntry }

// ScheduleNotFoundError identifies the missing (department, weekday) window.
type ScheduleNotFoundError struct {
	DepartmentID string
	Date         Date
}

func (e *ScheduleNotFoundError) Error() string {
	return fmt.Sprintf("no schedule for department %s on %s (%s)",
		e.DepartmentID, e.Date, e.Date.DayName())
}

func (e *ScheduleNotFoundError) Unwrap() error { return ErrScheduleNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTimeEntry) ||
		errors.Is(err, ErrEmptyRange) ||
		errors.Is(err, ErrInvalidPolicy) ||
		errors.Is(err, ErrDuplicateEntry)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrDepartmentNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}
