/*
store.go - Storage collaborator interfaces consumed by the engine

PURPOSE:
  Defines the read surface the compliance pipeline needs and the
  read-modify-write surface the time clock needs. The engine itself is
  read-only against storage: schedules and directory records are
  administered elsewhere, and compliance output is never persisted.

CONCURRENCY CONTRACT:
  At most one TimeEntry exists per (employee, date), and every mutation
  is scoped to that single row. Implementations must make CreateTimeEntry
  atomic with respect to that uniqueness (a database unique constraint or
  equivalent) so two concurrent clock-ins cannot both observe "no entry
  for today". The engine cannot enforce this after the fact.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - compliance/store/memory.go: in-memory for tests

SEE ALSO:
  - report.go: consumes ScheduleSource, EmployeeSource, EntrySource
  - tracker/timeclock.go: consumes EntryStore
*/
package compliance

import (
	"context"
	"time"
)

// ScheduleSource resolves expected working windows.
type ScheduleSource interface {
	// GetScheduleWindow returns the window for a (department, weekday) pair,
	// or ErrScheduleNotFound.
	// time.Weekday matches the stored convention exactly (0=Sunday..6=Saturday).
	GetScheduleWindow(ctx context.Context, departmentID string, day time.Weekday) (ScheduleWindow, error)
}

// EmployeeSource resolves employee directory records.
type EmployeeSource interface {
	// GetEmployee returns the employee, or ErrEmployeeNotFound.
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
}

// EntrySource reads punch records.
type EntrySource interface {
	// GetTimeEntry returns the entry for a date, or ErrEntryNotFound.
	GetTimeEntry(ctx context.Context, employeeID string, date Date) (TimeEntry, error)

	// ListTimeEntries returns entries in [from, to], ascending by date.
	ListTimeEntries(ctx context.Context, employeeID string, period Period) ([]TimeEntry, error)
}

// EntryStore extends EntrySource with the single-row mutations the time
// clock performs. Create must be atomic per (employee, date).
type EntryStore interface {
	EntrySource

	// CreateTimeEntry inserts a new entry. Returns ErrDuplicateEntry if one
	// already exists for (employee, date).
	CreateTimeEntry(ctx context.Context, entry TimeEntry) error

	// UpdateTimeEntry replaces the entry for (entry.EmployeeID, entry.Date).
	// Returns ErrEntryNotFound if it does not exist.
	UpdateTimeEntry(ctx context.Context, entry TimeEntry) error
}
