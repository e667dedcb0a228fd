/*
handlers.go - HTTP API handlers for the attendance system

PURPOSE:
  Exposes the compliance engine and time clock via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Departments:
    GET    /api/departments                      List departments
    POST   /api/departments                      Create/update department
    GET    /api/departments/{id}/schedule        Weekly schedule
    PUT    /api/departments/{id}/schedule        Replace weekly schedule
    DELETE /api/departments/{id}                 Delete department

  Employees:
    GET    /api/employees                        List employees (?active=true)
    POST   /api/employees                        Create/update employee
    GET    /api/employees/{id}                   Get employee
    GET    /api/employees/{id}/entries           Punch records in range
    GET    /api/employees/{id}/compliance        Compliance report in range
    GET    /api/employees/{id}/hours             Hours rollup in range
    DELETE /api/employees/{id}                   Delete employee

  Time clock:
    POST   /api/time/clock-in                    Open today's entry
    POST   /api/time/clock-out                   Close today's entry
    POST   /api/time/break/start                 Start break
    POST   /api/time/break/end                   End break
    GET    /api/time/today/{employeeID}          Today's entry

  Admin:
    GET    /api/admin/policy                     Tier policy
    PUT    /api/admin/policy                     Update tier policy
    GET    /api/admin/open-sessions              Forgotten punches

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Conflict (already clocked in, duplicate entry)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/attendance-engine/compliance"
	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/warp/attendance-engine/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	TimeClock *tracker.TimeClock
	Clock     compliance.Clock
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, clock compliance.Clock) *Handler {
	return &Handler{
		Store:     store,
		TimeClock: tracker.NewTimeClock(store, store, store, clock),
		Clock:     clock,
	}
}

// reporter builds the compliance pipeline with the currently stored policy.
func (h *Handler) reporter(r *http.Request) (*compliance.Reporter, error) {
	policy, err := h.Store.GetPolicy(r.Context())
	if err != nil {
		return nil, err
	}
	return compliance.NewReporter(h.Store, h.Store, h.Store, policy, h.Clock), nil
}

// =============================================================================
// DEPARTMENT HANDLERS
// =============================================================================

// ListDepartments returns all departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list departments", err)
		return
	}

	dtos := make([]DepartmentDTO, len(departments))
	for i, d := range departments {
		dtos[i] = DepartmentDTO{ID: d.ID, Name: d.Name, Description: d.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveDepartment creates or updates a department. A new department gets a
// default Monday-Friday 09:00-18:00 schedule so compliance reports work
// before anyone touches the schedule editor.
func (h *Handler) SaveDepartment(w http.ResponseWriter, r *http.Request) {
	var req SaveDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	ctx := r.Context()
	_, getErr := h.Store.GetDepartment(ctx, req.ID)
	isNew := errors.Is(getErr, compliance.ErrDepartmentNotFound)

	dept := compliance.Department{ID: req.ID, Name: req.Name, Description: req.Description}
	if err := h.Store.SaveDepartment(ctx, dept); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save department", err)
		return
	}

	if isNew {
		week := compliance.DefaultWeek(req.ID,
			compliance.NewTimeOfDay(9, 0), compliance.NewTimeOfDay(18, 0))
		if err := h.Store.SaveWeek(ctx, week); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed default schedule", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, DepartmentDTO{
		ID: dept.ID, Name: dept.Name, Description: dept.Description,
	})
}

// DeleteDepartment removes a department and its schedule.
func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteDepartment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete department", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule returns a department's weekly schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.Store.GetDepartment(r.Context(), id); err != nil {
		if errors.Is(err, compliance.ErrDepartmentNotFound) {
			writeError(w, http.StatusNotFound, "Department not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get department", err)
		return
	}

	windows, err := h.Store.ListScheduleWindows(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedule", err)
		return
	}

	dtos := make([]ScheduleWindowDTO, len(windows))
	for i, win := range windows {
		dtos[i] = ScheduleWindowDTO{
			DayOfWeek:    int(win.DayOfWeek),
			StartTime:    win.Start.String(),
			EndTime:      win.End.String(),
			IsWorkingDay: win.IsWorkingDay,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveSchedule replaces a department's weekly schedule atomically.
func (h *Handler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SaveScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	windows := make([]compliance.ScheduleWindow, 0, len(req.Windows))
	for _, win := range req.Windows {
		if win.DayOfWeek < 0 || win.DayOfWeek > 6 {
			writeError(w, http.StatusBadRequest, "day_of_week must be 0-6", nil)
			return
		}
		start, err := compliance.ParseTimeOfDay(win.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_time", err)
			return
		}
		end, err := compliance.ParseTimeOfDay(win.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_time", err)
			return
		}
		if win.IsWorkingDay && !end.After(start) {
			writeError(w, http.StatusBadRequest, "end_time must be after start_time on working days", nil)
			return
		}
		windows = append(windows, compliance.ScheduleWindow{
			DepartmentID: id,
			DayOfWeek:    time.Weekday(win.DayOfWeek),
			Start:        start,
			End:          end,
			IsWorkingDay: win.IsWorkingDay,
		})
	}

	if err := h.Store.SaveWeek(r.Context(), windows); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": len(windows)})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns employees; ?active=true filters to active ones.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	employees, err := h.Store.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	employee, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, compliance.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "Employee not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(employee))
}

// SaveEmployee creates or updates an employee.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.FullName == "" || req.DepartmentID == "" {
		writeError(w, http.StatusBadRequest, "id, full_name and department_id are required", nil)
		return
	}

	if _, err := h.Store.GetDepartment(r.Context(), req.DepartmentID); err != nil {
		if errors.Is(err, compliance.ErrDepartmentNotFound) {
			writeError(w, http.StatusBadRequest, "Unknown department", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to check department", err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	employee := compliance.Employee{
		ID:           req.ID,
		FullName:     req.FullName,
		Email:        req.Email,
		DepartmentID: req.DepartmentID,
		Position:     req.Position,
		IsActive:     active,
	}

	if err := h.Store.SaveEmployee(r.Context(), employee); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(employee))
}

// DeleteEmployee removes an employee record.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteEmployee(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEntries returns an employee's punch records in a date range.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	entries, err := h.Store.ListTimeEntries(r.Context(), id, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]TimeEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toTimeEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetComplianceReport runs the compliance pipeline for an employee over
// ?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) GetComplianceReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	reporter, err := h.reporter(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load policy", err)
		return
	}

	report, err := reporter.ComplianceReport(r.Context(), id, period)
	if err != nil {
		switch {
		case errors.Is(err, compliance.ErrEmptyRange):
			writeError(w, http.StatusBadRequest, "Range end before start", err)
		case errors.Is(err, compliance.ErrEmployeeNotFound):
			writeError(w, http.StatusNotFound, "Employee not found", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toComplianceReportDTO(report))
}

// GetHoursReport returns worked/overtime rollups for an employee.
func (h *Handler) GetHoursReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	entries, err := h.Store.ListTimeEntries(r.Context(), id, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toHoursReportDTO(compliance.HoursRollup(entries)))
}

// =============================================================================
// TIME CLOCK HANDLERS
// =============================================================================

// ClockIn opens today's entry for the employee in the request body.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.TimeClock.ClockIn)
}

// ClockOut closes today's entry.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.TimeClock.ClockOut)
}

// StartBreak records the break start.
func (h *Handler) StartBreak(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.TimeClock.StartBreak)
}

// EndBreak records the break end.
func (h *Handler) EndBreak(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.TimeClock.EndBreak)
}

// punch is the shared body for the four clock actions.
func (h *Handler) punch(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, employeeID string) (compliance.TimeEntry, error)) {

	var req PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}

	entry, err := action(r.Context(), req.EmployeeID)
	if err != nil {
		writePunchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

func writePunchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrAlreadyClockedIn),
		errors.Is(err, tracker.ErrAlreadyClockedOut),
		errors.Is(err, tracker.ErrBreakAlreadyTaken):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, tracker.ErrNotClockedIn),
		errors.Is(err, tracker.ErrBreakOpen),
		errors.Is(err, tracker.ErrNotOnBreak):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, compliance.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "Employee not found", nil)
	default:
		writeError(w, http.StatusInternalServerError, "Punch failed", err)
	}
}

// GetToday returns today's entry for an employee, 204 when none exists.
func (h *Handler) GetToday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")

	entry, err := h.TimeClock.Today(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get today's entry", err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toTimeEntryDTO(*entry))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GetPolicy returns the current tier policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Store.GetPolicy(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load policy", err)
		return
	}
	writeJSON(w, http.StatusOK, PolicyDTO(policy))
}

// SavePolicy updates the tier policy.
func (h *Handler) SavePolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	policy := compliance.TierPolicy(req)
	if err := policy.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Tier boundaries must be ordered", err)
		return
	}
	if err := h.Store.SavePolicy(r.Context(), policy); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ListOpenSessions returns past-date entries that were never clocked out.
func (h *Handler) ListOpenSessions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListOpenEntriesBefore(r.Context(), h.Clock.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list open sessions", err)
		return
	}

	dtos := make([]TimeEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toTimeEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// parsePeriod reads ?start and ?end query params as an inclusive range.
func parsePeriod(w http.ResponseWriter, r *http.Request) (compliance.Period, bool) {
	start, err := compliance.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return compliance.Period{}, false
	}
	end, err := compliance.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return compliance.Period{}, false
	}

	period := compliance.Period{From: start, To: end}
	if err := period.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Range end before start", err)
		return compliance.Period{}, false
	}
	return period, true
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
