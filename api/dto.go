/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - compliance/types.go: the domain records these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/compliance"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// DepartmentDTO represents a department in API responses.
type DepartmentDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SaveDepartmentRequest creates or updates a department.
type SaveDepartmentRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email,omitempty"`
	DepartmentID string `json:"department_id"`
	Position     string `json:"position,omitempty"`
	IsActive     bool   `json:"is_active"`
}

// SaveEmployeeRequest creates or updates an employee.
type SaveEmployeeRequest struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email,omitempty"`
	DepartmentID string `json:"department_id"`
	Position     string `json:"position,omitempty"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

// ScheduleWindowDTO is one weekday row of a department schedule.
type ScheduleWindowDTO struct {
	DayOfWeek    int    `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime    string `json:"start_time"`  // "09:00"
	EndTime      string `json:"end_time"`    // "18:00"
	IsWorkingDay bool   `json:"is_working_day"`
}

// SaveScheduleRequest replaces a department's weekly schedule.
type SaveScheduleRequest struct {
	Windows []ScheduleWindowDTO `json:"windows"`
}

// TimeEntryDTO represents a punch record.
type TimeEntryDTO struct {
	EmployeeID    string   `json:"employee_id"`
	Date          string   `json:"date"`
	ClockIn       string   `json:"clock_in"`
	ClockOut      *string  `json:"clock_out"`
	BreakStart    *string  `json:"break_start,omitempty"`
	BreakEnd      *string  `json:"break_end,omitempty"`
	TotalHours    *float64 `json:"total_hours"`
	OvertimeHours *float64 `json:"overtime_hours,omitempty"`
	OnBreak       bool     `json:"on_break"`
}

// PunchRequest identifies the employee performing a clock action.
type PunchRequest struct {
	EmployeeID string `json:"employee_id"`
}

// ComplianceRecordDTO is one evaluated day of a compliance report.
type ComplianceRecordDTO struct {
	Date                string   `json:"date"`
	DayName             string   `json:"day_name"`
	IsWorkingDay        bool     `json:"is_working_day"`
	ExpectedStartTime   string   `json:"expected_start_time"`
	ExpectedEndTime     string   `json:"expected_end_time"`
	ClockIn             *string  `json:"clock_in"`
	ClockOut            *string  `json:"clock_out"`
	TotalHours          *float64 `json:"total_hours"`
	ArrivalDelayMinutes *int     `json:"arrival_delay_minutes"`
	ArrivalStatus       string   `json:"arrival_status"`
	DepartureStatus     string   `json:"departure_status"`
	ExpectedHours       float64  `json:"expected_hours"`
	HoursDifference     *float64 `json:"hours_difference"`
}

// ComplianceSummaryDTO is the range aggregate of a compliance report.
type ComplianceSummaryDTO struct {
	TotalWorkingDays      int     `json:"total_working_days"`
	PunctualDays          int     `json:"punctual_days"`
	LateDays              int     `json:"late_days"`
	AbsentDays            int     `json:"absent_days"`
	PunctualityPercentage float64 `json:"punctuality_percentage"`
	AbsenteeismPercentage float64 `json:"absenteeism_percentage"`
	AvgDelayMinutes       float64 `json:"avg_delay_minutes"`
	TotalHoursWorked      float64 `json:"total_hours_worked"`
	TotalExpectedHours    float64 `json:"total_expected_hours"`
	HoursDifference       float64 `json:"hours_difference"`
}

// ComplianceReportDTO bundles records, summary and flagged days.
type ComplianceReportDTO struct {
	EmployeeID string                `json:"employee_id"`
	StartDate  string                `json:"start_date"`
	EndDate    string                `json:"end_date"`
	Records    []ComplianceRecordDTO `json:"records"`
	Summary    ComplianceSummaryDTO  `json:"summary"`
	Issues     []DayIssueDTO         `json:"issues,omitempty"`
}

// DayIssueDTO flags a day that could not be evaluated normally.
type DayIssueDTO struct {
	Date  string `json:"date"`
	Error string `json:"error"`
}

// HoursBucketDTO is one row of an hours rollup.
type HoursBucketDTO struct {
	Label    string  `json:"label"`
	Hours    float64 `json:"hours"`
	Overtime float64 `json:"overtime"`
}

// HoursReportDTO groups worked/overtime hours by day, week and month.
type HoursReportDTO struct {
	Daily         []HoursBucketDTO `json:"daily"`
	Weekly        []HoursBucketDTO `json:"weekly"`
	Monthly       []HoursBucketDTO `json:"monthly"`
	TotalHours    float64          `json:"total_hours"`
	TotalOvertime float64          `json:"total_overtime"`
}

// PolicyDTO mirrors compliance.TierPolicy on the wire.
type PolicyDTO struct {
	GraceMinutes  int `json:"grace_minutes"`
	MinorLimit    int `json:"minor_limit_minutes"`
	ModerateLimit int `json:"moderate_limit_minutes"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e compliance.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           e.ID,
		FullName:     e.FullName,
		Email:        e.Email,
		DepartmentID: e.DepartmentID,
		Position:     e.Position,
		IsActive:     e.IsActive,
	}
}

func toTimeEntryDTO(entry compliance.TimeEntry) TimeEntryDTO {
	return TimeEntryDTO{
		EmployeeID:    entry.EmployeeID,
		Date:          entry.Date.String(),
		ClockIn:       entry.ClockIn.Format(time.RFC3339),
		ClockOut:      formatTimePtr(entry.ClockOut),
		BreakStart:    formatTimePtr(entry.BreakStart),
		BreakEnd:      formatTimePtr(entry.BreakEnd),
		TotalHours:    decimalPtrToFloat(entry.TotalHours),
		OvertimeHours: decimalPtrToFloat(entry.OvertimeHours),
		OnBreak:       entry.OnBreak(),
	}
}

func toComplianceRecordDTO(r compliance.ComplianceRecord) ComplianceRecordDTO {
	return ComplianceRecordDTO{
		Date:                r.Date.String(),
		DayName:             r.DayName,
		IsWorkingDay:        r.IsWorkingDay,
		ExpectedStartTime:   r.ExpectedStart.String(),
		ExpectedEndTime:     r.ExpectedEnd.String(),
		ClockIn:             formatTimePtr(r.ClockIn),
		ClockOut:            formatTimePtr(r.ClockOut),
		TotalHours:          decimalPtrToFloat(r.TotalHours),
		ArrivalDelayMinutes: r.ArrivalDelayMinutes,
		ArrivalStatus:       string(r.ArrivalStatus),
		DepartureStatus:     string(r.DepartureStatus),
		ExpectedHours:       decimalToFloat(r.ExpectedHours),
		HoursDifference:     decimalPtrToFloat(r.HoursDifference),
	}
}

func toComplianceSummaryDTO(s compliance.ComplianceSummary) ComplianceSummaryDTO {
	return ComplianceSummaryDTO{
		TotalWorkingDays:      s.TotalWorkingDays,
		PunctualDays:          s.PunctualDays,
		LateDays:              s.LateDays,
		AbsentDays:            s.AbsentDays,
		PunctualityPercentage: decimalToFloat(s.PunctualityPercentage),
		AbsenteeismPercentage: decimalToFloat(s.AbsenteeismPercentage),
		AvgDelayMinutes:       decimalToFloat(s.AvgDelayMinutes),
		TotalHoursWorked:      decimalToFloat(s.TotalHoursWorked),
		TotalExpectedHours:    decimalToFloat(s.TotalExpectedHours),
		HoursDifference:       decimalToFloat(s.HoursDifference),
	}
}

func toComplianceReportDTO(report *compliance.Report) ComplianceReportDTO {
	dto := ComplianceReportDTO{
		EmployeeID: report.EmployeeID,
		StartDate:  report.Period.From.String(),
		EndDate:    report.Period.To.String(),
		Records:    make([]ComplianceRecordDTO, len(report.Records)),
		Summary:    toComplianceSummaryDTO(report.Summary),
	}
	for i, r := range report.Records {
		dto.Records[i] = toComplianceRecordDTO(r)
	}
	for _, issue := range report.Issues {
		dto.Issues = append(dto.Issues, DayIssueDTO{
			Date:  issue.Date.String(),
			Error: issue.Err.Error(),
		})
	}
	return dto
}

func toHoursReportDTO(report compliance.HoursReport) HoursReportDTO {
	return HoursReportDTO{
		Daily:         toHoursBucketDTOs(report.Daily),
		Weekly:        toHoursBucketDTOs(report.Weekly),
		Monthly:       toHoursBucketDTOs(report.Monthly),
		TotalHours:    decimalToFloat(report.TotalHours),
		TotalOvertime: decimalToFloat(report.TotalOvertime),
	}
}

func toHoursBucketDTOs(buckets []compliance.HoursBucket) []HoursBucketDTO {
	dtos := make([]HoursBucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = HoursBucketDTO{
			Label:    b.Label,
			Hours:    decimalToFloat(b.Hours),
			Overtime: decimalToFloat(b.Overtime),
		}
	}
	return dtos
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
