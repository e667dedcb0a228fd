/*
Package compliance provides the attendance compliance engine.

PURPOSE:
  This package contains the pure computation pipeline that turns raw
  clock-in/clock-out events and a department's weekly schedule into
  per-day compliance records and range-level summaries. It owns no
  state: schedules and time entries come from a storage collaborator,
  and everything it produces is derived.

PIPELINE (three stages, each independent):
  1. Resolver   - (department, date) -> expected ScheduleWindow
  2. Evaluator  - (window, entry?, date) -> ComplianceRecord
  3. Aggregate  - []ComplianceRecord -> ComplianceSummary

KEY CONCEPTS IN THIS FILE (types.go):
  - ScheduleWindow: expected work window for one weekday of one department
  - TimeEntry: one employee's punch record for one calendar date
  - ComplianceRecord / ComplianceSummary: the engine's two outputs
  - ArrivalStatus / DepartureStatus: closed status enums
  - TierPolicy: punctuality grace period and late-tier boundaries

DESIGN PRINCIPLES:
  1. Purity: evaluation is a function of its inputs; "today" is injected
  2. Precision: decimal.Decimal for hour arithmetic, no float drift
  3. Civil time: delay is a wall-clock comparison, never an epoch diff
  4. Totality: bad days degrade to DESCONOCIDO, they never abort a range

SEE ALSO:
  - schedule.go: Resolver
  - evaluate.go: Evaluator
  - aggregate.go: summary fold
  - report.go: the full pipeline over a date range
*/
package compliance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULE WINDOW - Expected work window per (department, weekday)
// =============================================================================

// ScheduleWindow is the expected working window for one weekday of one
// department. Exactly one window exists per (department, weekday); if
// IsWorkingDay is false the Start/End values are advisory only and never
// contribute to expected hours.
type ScheduleWindow struct {
	DepartmentID string
	DayOfWeek    time.Weekday
	Start        TimeOfDay
	End          TimeOfDay
	IsWorkingDay bool
}

// ExpectedHours returns the scheduled hours for this window: End - Start on
// working days, zero otherwise.
func (w ScheduleWindow) ExpectedHours() decimal.Decimal {
	if !w.IsWorkingDay {
		return decimal.Zero
	}
	minutes := w.End.MinutesSince(w.Start)
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}

// =============================================================================
// TIME ENTRY - One employee's punches for one calendar date
// =============================================================================

// TimeEntry is an employee's punch record for a single date. At most one
// entry exists per (employee, date); that uniqueness is enforced by the
// storage collaborator, not here.
type TimeEntry struct {
	EmployeeID string
	Date       Date
	ClockIn    time.Time
	ClockOut   *time.Time
	BreakStart *time.Time
	BreakEnd   *time.Time

	// Derived on clock-out, nil while the session is open.
	TotalHours    *decimal.Decimal
	OvertimeHours *decimal.Decimal
}

// IsOpen reports whether the session has not been clocked out yet.
func (e TimeEntry) IsOpen() bool { return e.ClockOut == nil }

// OnBreak reports whether a break has started and not ended.
func (e TimeEntry) OnBreak() bool { return e.BreakStart != nil && e.BreakEnd == nil }

// BreakDuration returns the elapsed break time, zero if no complete break.
func (e TimeEntry) BreakDuration() time.Duration {
	if e.BreakStart == nil || e.BreakEnd == nil {
		return 0
	}
	return e.BreakEnd.Sub(*e.BreakStart)
}

// =============================================================================
// STATUS ENUMS
// =============================================================================

// ArrivalStatus classifies how punctual a clock-in was against the expected
// start time. The values are the wire vocabulary the reporting layer renders.
type ArrivalStatus string

const (
	ArrivalPunctual   ArrivalStatus = "PUNTUAL"          // within grace of expected start
	ArrivalMinorDelay ArrivalStatus = "RETRASO_LEVE"     // delay in (grace, 15] minutes
	ArrivalModerate   ArrivalStatus = "RETRASO_MODERADO" // delay in (15, 45] minutes
	ArrivalSevere     ArrivalStatus = "RETRASO_GRAVE"    // delay > 45 minutes
	ArrivalAbsent     ArrivalStatus = "AUSENTE"          // working day, no clock-in
	ArrivalNonWorking ArrivalStatus = "DIA_NO_LABORAL"   // schedule marks the day off
	ArrivalUnknown    ArrivalStatus = "DESCONOCIDO"      // missing schedule or corrupt entry
)

// IsLate reports whether the status is one of the three late tiers.
func (s ArrivalStatus) IsLate() bool {
	return s == ArrivalMinorDelay || s == ArrivalModerate || s == ArrivalSevere
}

// DepartureStatus classifies clock-out timing and completeness against the
// expected end time.
type DepartureStatus string

const (
	DepartureOnTime     DepartureStatus = "COMPLETO"          // clocked out at or after expected end
	DepartureEarly      DepartureStatus = "SALIDA_ANTICIPADA" // clocked out before expected end
	DepartureInProgress DepartureStatus = "EN_CURSO"          // open session, evaluated date is today
	DepartureIncomplete DepartureStatus = "INCOMPLETO"        // open session on a past date (forgotten punch)
	DepartureNone       DepartureStatus = "SIN_REGISTRO"      // no session to judge (absent / non-working)
)

// =============================================================================
// COMPLIANCE RECORD - One evaluated day (transient, never persisted)
// =============================================================================

type ComplianceRecord struct {
	Date         Date
	DayName      string
	IsWorkingDay bool

	ExpectedStart TimeOfDay
	ExpectedEnd   TimeOfDay

	ClockIn  *time.Time
	ClockOut *time.Time

	// TotalHours is nil for open sessions and absences: an open session
	// contributes no hours yet, but it is not a zero-hour day either.
	TotalHours          *decimal.Decimal
	ArrivalDelayMinutes *int
	ArrivalStatus       ArrivalStatus
	DepartureStatus     DepartureStatus

	ExpectedHours decimal.Decimal

	// HoursDifference = TotalHours - ExpectedHours; only meaningful on a
	// working day with a completed entry, nil otherwise.
	HoursDifference *decimal.Decimal
}

// =============================================================================
// COMPLIANCE SUMMARY - Range aggregate for one employee
// =============================================================================

// ComplianceSummary aggregates compliance records over a date range.
// Invariant: PunctualDays + LateDays + AbsentDays <= TotalWorkingDays,
// with equality unless some working day evaluated to DESCONOCIDO.
type ComplianceSummary struct {
	TotalWorkingDays int
	PunctualDays     int
	LateDays         int
	AbsentDays       int

	PunctualityPercentage decimal.Decimal
	AbsenteeismPercentage decimal.Decimal
	AvgDelayMinutes       decimal.Decimal

	TotalHoursWorked   decimal.Decimal
	TotalExpectedHours decimal.Decimal
	HoursDifference    decimal.Decimal
}

// =============================================================================
// TIER POLICY - Punctuality grace and late-tier boundaries
// =============================================================================

// TierPolicy defines the punctuality grace period and the upper bounds of
// the minor and moderate late tiers, in minutes. Anything past ModerateLimit
// is severe.
type TierPolicy struct {
	GraceMinutes  int `json:"grace_minutes"`
	MinorLimit    int `json:"minor_limit_minutes"`
	ModerateLimit int `json:"moderate_limit_minutes"`
}

// DefaultTierPolicy matches the historical hard-coded boundaries:
// no grace, minor up to 15 minutes, moderate up to 45.
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{GraceMinutes: 0, MinorLimit: 15, ModerateLimit: 45}
}

// Validate rejects policies whose boundaries are not strictly ordered.
func (p TierPolicy) Validate() error {
	if p.GraceMinutes < 0 || p.MinorLimit <= p.GraceMinutes || p.ModerateLimit <= p.MinorLimit {
		return ErrInvalidPolicy
	}
	return nil
}

// Classify maps a delay in minutes to a late tier, or PUNTUAL when within
// grace. Callers handle absence and non-working days before classifying.
func (p TierPolicy) Classify(delayMinutes int) ArrivalStatus {
	switch {
	case delayMinutes <= p.GraceMinutes:
		return ArrivalPunctual
	case delayMinutes <= p.MinorLimit:
		return ArrivalMinorDelay
	case delayMinutes <= p.ModerateLimit:
		return ArrivalModerate
	default:
		return ArrivalSevere
	}
}

// =============================================================================
// DIRECTORY RECORDS - Read models the engine consumes
// =============================================================================

// Department is an organizational unit owning one weekly schedule.
type Department struct {
	ID          string
	Name        string
	Description string
}

// Employee is the minimal read model the engine needs: identity plus the
// department whose schedule governs the employee's expected hours.
type Employee struct {
	ID           string
	FullName     string
	Email        string
	DepartmentID string
	Position     string
	IsActive     bool
}
