package compliance

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// RESOLVER - (department, date) -> expected ScheduleWindow
// =============================================================================

// Resolver maps a calendar date to the department's expected working window
// for that weekday. Leaf stage of the pipeline; read-only against storage.
type Resolver struct {
	Schedules ScheduleSource
}

func NewResolver(schedules ScheduleSource) *Resolver {
	return &Resolver{Schedules: schedules}
}

// Resolve looks up the schedule window governing a date. A missing window
// comes back as a ScheduleNotFoundError carrying the date; callers treat it
// as "non-working day, unknown expected window" so a report over an
// arbitrary range stays total.
func (r *Resolver) Resolve(ctx context.Context, departmentID string, date Date) (ScheduleWindow, error) {
	window, err := r.Schedules.GetScheduleWindow(ctx, departmentID, date.Weekday())
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return ScheduleWindow{}, &ScheduleNotFoundError{DepartmentID: departmentID, Date: date}
		}
		// Storage failures propagate unchanged.
		return ScheduleWindow{}, err
	}
	return window, nil
}

// DefaultWeek returns a standard Monday-Friday week for a department:
// working days with the given window, weekend marked off. Used to seed a
// department that has no schedule configured yet.
func DefaultWeek(departmentID string, start, end TimeOfDay) []ScheduleWindow {
	windows := make([]ScheduleWindow, 7)
	for day := 0; day < 7; day++ {
		windows[day] = ScheduleWindow{
			DepartmentID: departmentID,
			DayOfWeek:    time.Weekday(day),
			Start:        start,
			End:          end,
			IsWorkingDay: day >= 1 && day <= 5,
		}
	}
	return windows
}
