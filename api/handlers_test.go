/*
handlers_test.go - HTTP tests against an in-memory database

Tests for:
- Department creation with default schedule seeding
- Time clock punch flow and conflict statuses
- Compliance report endpoint
- Tier policy round-trip and validation
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/compliance"
	"github.com/warp/attendance-engine/store/sqlite"
)

// stepClock lets tests move wall time between requests.
type stepClock struct {
	at time.Time
}

func (c *stepClock) Now() time.Time         { return c.at }
func (c *stepClock) Today() compliance.Date { return compliance.DateOf(c.at) }

func newTestServer(t *testing.T) (*httptest.Server, *stepClock) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Monday 2025-03-03 09:00 UTC
	clock := &stepClock{at: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)}
	server := httptest.NewServer(NewRouter(NewHandler(store, clock)))
	t.Cleanup(server.Close)
	return server, clock
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// seedDepartmentAndEmployee creates dept-ops (with its default week) and emp-1.
func seedDepartmentAndEmployee(t *testing.T, baseURL string) {
	t.Helper()

	resp := doJSON(t, http.MethodPost, baseURL+"/api/departments", SaveDepartmentRequest{
		ID: "dept-ops", Name: "Operations",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, baseURL+"/api/employees", SaveEmployeeRequest{
		ID: "emp-1", FullName: "Maria Lopez", DepartmentID: "dept-ops",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func TestSaveDepartment_SeedsDefaultWeek(t *testing.T) {
	// GIVEN: A fresh database
	// WHEN: Creating a department
	// THEN: It comes with a Monday-Friday 09:00-18:00 schedule out of the box

	server, _ := newTestServer(t)
	seedDepartmentAndEmployee(t, server.URL)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/departments/dept-ops/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var windows []ScheduleWindowDTO
	decode(t, resp, &windows)
	require.Len(t, windows, 7)

	working := 0
	for _, w := range windows {
		if w.IsWorkingDay {
			working++
			assert.Equal(t, "09:00", w.StartTime)
			assert.Equal(t, "18:00", w.EndTime)
		}
	}
	assert.Equal(t, 5, working)
}

func TestSaveSchedule_RejectsInvertedWindow(t *testing.T) {
	server, _ := newTestServer(t)
	seedDepartmentAndEmployee(t, server.URL)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/departments/dept-ops/schedule", SaveScheduleRequest{
		Windows: []ScheduleWindowDTO{
			{DayOfWeek: 1, StartTime: "18:00", EndTime: "09:00", IsWorkingDay: true},
		},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveEmployee_UnknownDepartment_Rejected(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/employees", SaveEmployeeRequest{
		ID: "emp-9", FullName: "Jose Diaz", DepartmentID: "dept-missing",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// TIME CLOCK
// =============================================================================

func TestPunchFlow(t *testing.T) {
	// GIVEN: A seeded employee
	// WHEN: Walking through clock-in, duplicate clock-in, and clock-out
	// THEN: 200, 409, 200 with derived hours

	server, clock := newTestServer(t)
	seedDepartmentAndEmployee(t, server.URL)
	punch := PunchRequest{EmployeeID: "emp-1"}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/time/clock-in", punch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry TimeEntryDTO
	decode(t, resp, &entry)
	assert.Equal(t, "2025-03-03", entry.Date)
	assert.Nil(t, entry.ClockOut)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/time/clock-in", punch)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/time/today/emp-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	clock.at = clock.at.Add(9 * time.Hour)
	resp = doJSON(t, http.MethodPost, server.URL+"/api/time/clock-out", punch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &entry)
	require.NotNil(t, entry.ClockOut)
	require.NotNil(t, entry.TotalHours)
	assert.InDelta(t, 9.0, *entry.TotalHours, 0.001)
}

func TestPunch_StateErrors(t *testing.T) {
	server, _ := newTestServer(t)
	seedDepartmentAndEmployee(t, server.URL)
	punch := PunchRequest{EmployeeID: "emp-1"}

	// Clock out before clocking in
	resp := doJSON(t, http.MethodPost, server.URL+"/api/time/clock-out", punch)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown employee
	resp = doJSON(t, http.MethodPost, server.URL+"/api/time/clock-in", PunchRequest{EmployeeID: "emp-ghost"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Missing body field
	resp = doJSON(t, http.MethodPost, server.URL+"/api/time/clock-in", PunchRequest{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetToday_NoEntry_NoContent(t *testing.T) {
	server, _ := newTestServer(t)
	seedDepartmentAndEmployee(t, server.URL)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/time/today/emp-1", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// =============================================================================
// COMPLIANCE REPORT
// =============================================================================

func TestComplianceReport_Endpoint(t *testing.T) {
	// GIVEN: A 09:20 clock-in and 18:00 clock-out on a Monday
	// WHEN: Requesting the compliance report for that day
	// THEN: RETRASO_MODERADO with 20 minutes of delay

	server, clock := newTestServer(t)
	seedDepartmentAndEmployee(t, server.URL)
	punch := PunchRequest{EmployeeID: "emp-1"}

	clock.at = clock.at.Add(20 * time.Minute) // 09:20
	resp := doJSON(t, http.MethodPost, server.URL+"/api/time/clock-in", punch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	clock.at = time.Date(2025, time.March, 3, 18, 0, 0, 0, time.UTC)
	resp = doJSON(t, http.MethodPost, server.URL+"/api/time/clock-out", punch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	url := fmt.Sprintf("%s/api/employees/emp-1/compliance?start=%s&end=%s",
		server.URL, "2025-03-03", "2025-03-03")
	resp = doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report ComplianceReportDTO
	decode(t, resp, &report)
	require.Len(t, report.Records, 1)

	record := report.Records[0]
	assert.Equal(t, "RETRASO_MODERADO", record.ArrivalStatus)
	require.NotNil(t, record.ArrivalDelayMinutes)
	assert.Equal(t, 20, *record.ArrivalDelayMinutes)
	assert.Equal(t, "COMPLETO", record.DepartureStatus)
	assert.Equal(t, 1, report.Summary.TotalWorkingDays)
	assert.Equal(t, 1, report.Summary.LateDays)
}

func TestComplianceReport_BadInputs(t *testing.T) {
	server, _ := newTestServer(t)
	seedDepartmentAndEmployee(t, server.URL)

	// End before start
	resp := doJSON(t, http.MethodGet,
		server.URL+"/api/employees/emp-1/compliance?start=2025-03-10&end=2025-03-03", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown employee
	resp = doJSON(t, http.MethodGet,
		server.URL+"/api/employees/emp-ghost/compliance?start=2025-03-03&end=2025-03-07", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Garbage date
	resp = doJSON(t, http.MethodGet,
		server.URL+"/api/employees/emp-1/compliance?start=yesterday&end=today", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestPolicy_RoundTrip(t *testing.T) {
	// GIVEN: A fresh database with no stored policy
	// WHEN: Reading, updating, and re-reading the tier policy
	// THEN: Defaults first, then the saved boundaries

	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/admin/policy", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var policy PolicyDTO
	decode(t, resp, &policy)
	assert.Equal(t, PolicyDTO{GraceMinutes: 0, MinorLimit: 15, ModerateLimit: 45}, policy)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/admin/policy",
		PolicyDTO{GraceMinutes: 5, MinorLimit: 20, ModerateLimit: 60})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/admin/policy", nil)
	decode(t, resp, &policy)
	assert.Equal(t, PolicyDTO{GraceMinutes: 5, MinorLimit: 20, ModerateLimit: 60}, policy)
}

func TestPolicy_InvalidBoundaries_Rejected(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/admin/policy",
		PolicyDTO{GraceMinutes: 30, MinorLimit: 15, ModerateLimit: 45})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOpenSessions_ListsForgottenPunches(t *testing.T) {
	// GIVEN: A clock-in on Monday that was never closed
	// WHEN: Listing open sessions on Tuesday
	// THEN: The stuck Monday entry appears

	server, clock := newTestServer(t)
	seedDepartmentAndEmployee(t, server.URL)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/time/clock-in", PunchRequest{EmployeeID: "emp-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	clock.at = clock.at.AddDate(0, 0, 1)
	resp = doJSON(t, http.MethodGet, server.URL+"/api/admin/open-sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessions []TimeEntryDTO
	decode(t, resp, &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, "emp-1", sessions[0].EmployeeID)
	assert.Equal(t, "2025-03-03", sessions[0].Date)
}
