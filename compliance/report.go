/*
report.go - The full compliance pipeline over a date range

PURPOSE:
  Wires the three stages together: resolve the schedule for each date in
  range, evaluate the day against the employee's punches, aggregate the
  records into a summary. One entry point for every caller that needs a
  report, so the fold logic lives in exactly one place.

PARTIAL RESULTS:
  A range with some broken days still renders fully for the valid ones.
  Missing schedules and corrupt entries degrade the affected day to
  DESCONOCIDO and are collected as Issues; they never abort the range.
  Storage failures (as opposed to missing records) do abort: the engine
  neither masks nor retries them.

SEE ALSO:
  - schedule.go, evaluate.go, aggregate.go: the stages
  - api/handlers.go: HTTP surface over this pipeline
*/
package compliance

import (
	"context"
	"errors"
)

// =============================================================================
// REPORT - Records + summary + per-day issues
// =============================================================================

// Report is the pipeline's output for one employee over one period.
// Records are ascending by date and cover every date in the period.
type Report struct {
	EmployeeID string
	Period     Period
	Records    []ComplianceRecord
	Summary    ComplianceSummary
	Issues     []DayIssue
}

// DayIssue flags a date that could not be evaluated normally.
type DayIssue struct {
	Date Date
	Err  error
}

// =============================================================================
// REPORTER
// =============================================================================

// Reporter runs the compliance pipeline against the storage collaborators.
type Reporter struct {
	Employees EmployeeSource
	Entries   EntrySource
	Resolver  *Resolver
	Evaluator *Evaluator
	Clock     Clock
}

func NewReporter(employees EmployeeSource, entries EntrySource, schedules ScheduleSource, policy TierPolicy, clock Clock) *Reporter {
	return &Reporter{
		Employees: employees,
		Entries:   entries,
		Resolver:  NewResolver(schedules),
		Evaluator: NewEvaluator(policy),
		Clock:     clock,
	}
}

// ComplianceReport evaluates every date in the period for one employee.
func (rep *Reporter) ComplianceReport(ctx context.Context, employeeID string, period Period) (*Report, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	employee, err := rep.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	entries, err := rep.Entries.ListTimeEntries(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}
	byDate := make(map[Date]TimeEntry, len(entries))
	for _, e := range entries {
		byDate[e.Date] = e
	}

	today := rep.Clock.Today()
	report := &Report{EmployeeID: employeeID, Period: period}

	for _, date := range period.Days() {
		var entry *TimeEntry
		if e, ok := byDate[date]; ok {
			entry = &e
		}

		window, err := rep.Resolver.Resolve(ctx, employee.DepartmentID, date)
		if err != nil {
			if !errors.Is(err, ErrScheduleNotFound) {
				return nil, err
			}
			report.Records = append(report.Records, unknownDay(date, entry, err))
			report.Issues = append(report.Issues, DayIssue{Date: date, Err: err})
			continue
		}

		record, err := rep.Evaluator.Evaluate(window, entry, date, today)
		if err != nil {
			if !errors.Is(err, ErrInvalidTimeEntry) {
				return nil, err
			}
			// Skip-and-report: the corrupt day is flagged, the window is
			// still known, and the day keeps its working-day weight.
			record = unknownDay(date, nil, err)
			record.IsWorkingDay = window.IsWorkingDay
			record.ExpectedStart = window.Start
			record.ExpectedEnd = window.End
			record.ExpectedHours = window.ExpectedHours()
			report.Issues = append(report.Issues, DayIssue{Date: date, Err: err})
		}
		report.Records = append(report.Records, record)
	}

	report.Summary = Aggregate(report.Records)
	return report, nil
}

// unknownDay builds the DESCONOCIDO placeholder record for a date that could
// not be evaluated. With no schedule the day carries no working-day weight.
func unknownDay(date Date, entry *TimeEntry, _ error) ComplianceRecord {
	record := ComplianceRecord{
		Date:            date,
		DayName:         date.DayName(),
		IsWorkingDay:    false,
		ArrivalStatus:   ArrivalUnknown,
		DepartureStatus: DepartureNone,
	}
	if entry != nil {
		record.ClockIn = cloneTime(&entry.ClockIn)
		record.ClockOut = cloneTime(entry.ClockOut)
	}
	return record
}
