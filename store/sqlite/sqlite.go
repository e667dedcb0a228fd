/*
Package sqlite provides a SQLite-backed implementation of the storage
collaborators.

PURPOSE:
  Implements the compliance engine's storage interfaces (ScheduleSource,
  EmployeeSource, EntryStore) plus the administrative CRUD the API needs.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  departments:          organizational units
  department_schedules: one row per (department, weekday), the weekly window
  employees:            directory records with department membership
  time_entries:         one row per (employee, date), the punch record
  compliance_policy:    single-row tier policy configuration

CRITICAL CONSTRAINTS:
  idx_unique_entry_day:     UNIQUE(employee_id, date). This is what kills
                            the double clock-in race: two concurrent
                            clock-ins cannot both insert "today".
  idx_unique_schedule_day:  UNIQUE(department_id, day_of_week). Exactly one
                            window per weekday per department.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - compliance/store.go: interface definitions
  - compliance/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/compliance"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- One expected window per (department, weekday)
	CREATE TABLE IF NOT EXISTS department_schedules (
		department_id TEXT NOT NULL,
		day_of_week INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		is_working_day BOOLEAN NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_schedule_day
		ON department_schedules(department_id, day_of_week);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT,
		department_id TEXT NOT NULL,
		position TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_department
		ON employees(department_id);

	-- Punch records. One row per (employee, date); the unique index is the
	-- storage-boundary guarantee against the double clock-in race.
	CREATE TABLE IF NOT EXISTS time_entries (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		clock_in TEXT NOT NULL,
		clock_out TEXT,
		break_start TEXT,
		break_end TEXT,
		total_hours TEXT,
		overtime_hours TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_entry_day
		ON time_entries(employee_id, date);

	-- Range listing is the report hot path
	CREATE INDEX IF NOT EXISTS idx_entries_employee_date
		ON time_entries(employee_id, date ASC);

	-- For the stale session sweep
	CREATE INDEX IF NOT EXISTS idx_entries_open
		ON time_entries(date) WHERE clock_out IS NULL;

	-- Single-row tier policy configuration
	CREATE TABLE IF NOT EXISTS compliance_policy (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

// SaveDepartment inserts or updates a department.
func (s *Store) SaveDepartment(ctx context.Context, d compliance.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO departments (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Name, d.Description,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetDepartment retrieves a department, or ErrDepartmentNotFound.
func (s *Store) GetDepartment(ctx context.Context, id string) (compliance.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d compliance.Department
	var description sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM departments WHERE id = ?", id,
	).Scan(&d.ID, &d.Name, &description)

	if err == sql.ErrNoRows {
		return compliance.Department{}, compliance.ErrDepartmentNotFound
	}
	if err != nil {
		return compliance.Department{}, err
	}
	d.Description = description.String
	return d, nil
}

// ListDepartments returns all departments ordered by name.
func (s *Store) ListDepartments(ctx context.Context) ([]compliance.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description FROM departments ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []compliance.Department
	for rows.Next() {
		var d compliance.Department
		var description sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &description); err != nil {
			return nil, err
		}
		d.Description = description.String
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// DeleteDepartment removes a department and its schedule.
func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM department_schedules WHERE department_id = ?", id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM departments WHERE id = ?", id)
	return err
}

// =============================================================================
// SCHEDULES (compliance.ScheduleSource)
// =============================================================================

// SaveScheduleWindow upserts the window for (department, weekday).
func (s *Store) SaveScheduleWindow(ctx context.Context, w compliance.ScheduleWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveWindow(ctx, s.db, w)
}

// SaveWeek atomically replaces a department's full weekly schedule.
func (s *Store) SaveWeek(ctx context.Context, windows []compliance.ScheduleWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, w := range windows {
		if err := s.saveWindow(ctx, tx, w); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) saveWindow(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, w compliance.ScheduleWindow) error {
	query := `
		INSERT INTO department_schedules
		(department_id, day_of_week, start_time, end_time, is_working_day, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(department_id, day_of_week) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_working_day = excluded.is_working_day,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		w.DepartmentID, int(w.DayOfWeek),
		w.Start.String(), w.End.String(), w.IsWorkingDay,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetScheduleWindow returns the window for (department, weekday).
func (s *Store) GetScheduleWindow(ctx context.Context, departmentID string, day time.Weekday) (compliance.ScheduleWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		w          compliance.ScheduleWindow
		dayOfWeek  int
		start, end string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT department_id, day_of_week, start_time, end_time, is_working_day
		 FROM department_schedules WHERE department_id = ? AND day_of_week = ?`,
		departmentID, int(day),
	).Scan(&w.DepartmentID, &dayOfWeek, &start, &end, &w.IsWorkingDay)

	if err == sql.ErrNoRows {
		return compliance.ScheduleWindow{}, compliance.ErrScheduleNotFound
	}
	if err != nil {
		return compliance.ScheduleWindow{}, err
	}

	w.DayOfWeek = time.Weekday(dayOfWeek)
	if w.Start, err = compliance.ParseTimeOfDay(start); err != nil {
		return compliance.ScheduleWindow{}, err
	}
	if w.End, err = compliance.ParseTimeOfDay(end); err != nil {
		return compliance.ScheduleWindow{}, err
	}
	return w, nil
}

// ListScheduleWindows returns a department's week ordered by weekday.
func (s *Store) ListScheduleWindows(ctx context.Context, departmentID string) ([]compliance.ScheduleWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT department_id, day_of_week, start_time, end_time, is_working_day
		 FROM department_schedules WHERE department_id = ? ORDER BY day_of_week`,
		departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []compliance.ScheduleWindow
	for rows.Next() {
		var (
			w          compliance.ScheduleWindow
			dayOfWeek  int
			start, end string
		)
		if err := rows.Scan(&w.DepartmentID, &dayOfWeek, &start, &end, &w.IsWorkingDay); err != nil {
			return nil, err
		}
		w.DayOfWeek = time.Weekday(dayOfWeek)
		if w.Start, err = compliance.ParseTimeOfDay(start); err != nil {
			return nil, err
		}
		if w.End, err = compliance.ParseTimeOfDay(end); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// =============================================================================
// EMPLOYEES (compliance.EmployeeSource)
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, e compliance.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, full_name, email, department_id, position, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			department_id = excluded.department_id,
			position = excluded.position,
			is_active = excluded.is_active
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.FullName, e.Email, e.DepartmentID, e.Position, e.IsActive,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves an employee, or ErrEmployeeNotFound.
func (s *Store) GetEmployee(ctx context.Context, id string) (compliance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e compliance.Employee
	var email, position sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, department_id, position, is_active
		 FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.FullName, &email, &e.DepartmentID, &position, &e.IsActive)

	if err == sql.ErrNoRows {
		return compliance.Employee{}, compliance.ErrEmployeeNotFound
	}
	if err != nil {
		return compliance.Employee{}, err
	}
	e.Email = email.String
	e.Position = position.String
	return e, nil
}

// ListEmployees returns employees ordered by name. activeOnly filters to
// is_active employees, which is what the report pickers want.
func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]compliance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, full_name, email, department_id, position, is_active
		 FROM employees`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY full_name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []compliance.Employee
	for rows.Next() {
		var e compliance.Employee
		var email, position sql.NullString
		if err := rows.Scan(&e.ID, &e.FullName, &email, &e.DepartmentID, &position, &e.IsActive); err != nil {
			return nil, err
		}
		e.Email = email.String
		e.Position = position.String
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee record. Entries are kept: deleting
// punch history is an administrative action, not a cascade.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	return err
}

// =============================================================================
// TIME ENTRIES (compliance.EntryStore)
// =============================================================================

// CreateTimeEntry inserts a new punch record. The unique index on
// (employee_id, date) rejects a concurrent duplicate as ErrDuplicateEntry.
func (s *Store) CreateTimeEntry(ctx context.Context, entry compliance.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO time_entries
		(employee_id, date, clock_in, clock_out, break_start, break_end,
		 total_hours, overtime_hours, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.EmployeeID,
		entry.Date.String(),
		entry.ClockIn.Format(time.RFC3339),
		nullTime(entry.ClockOut),
		nullTime(entry.BreakStart),
		nullTime(entry.BreakEnd),
		nullDecimal(entry.TotalHours),
		nullDecimal(entry.OvertimeHours),
		time.Now().UTC().Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return compliance.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create time entry: %w", err)
	}
	return nil
}

// UpdateTimeEntry replaces the punch record for (employee, date).
func (s *Store) UpdateTimeEntry(ctx context.Context, entry compliance.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE time_entries SET
			clock_in = ?, clock_out = ?, break_start = ?, break_end = ?,
			total_hours = ?, overtime_hours = ?, updated_at = ?
		WHERE employee_id = ? AND date = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		entry.ClockIn.Format(time.RFC3339),
		nullTime(entry.ClockOut),
		nullTime(entry.BreakStart),
		nullTime(entry.BreakEnd),
		nullDecimal(entry.TotalHours),
		nullDecimal(entry.OvertimeHours),
		time.Now().UTC().Format(time.RFC3339),
		entry.EmployeeID,
		entry.Date.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return compliance.ErrEntryNotFound
	}
	return nil
}

// GetTimeEntry returns the entry for (employee, date), or ErrEntryNotFound.
func (s *Store) GetTimeEntry(ctx context.Context, employeeID string, date compliance.Date) (compliance.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT employee_id, date, clock_in, clock_out, break_start, break_end,
		       total_hours, overtime_hours
		FROM time_entries
		WHERE employee_id = ? AND date = ?
	`

	entries, err := s.queryEntries(ctx, query, employeeID, date.String())
	if err != nil {
		return compliance.TimeEntry{}, err
	}
	if len(entries) == 0 {
		return compliance.TimeEntry{}, compliance.ErrEntryNotFound
	}
	return entries[0], nil
}

// ListTimeEntries returns entries in [from, to], ascending by date.
func (s *Store) ListTimeEntries(ctx context.Context, employeeID string, period compliance.Period) ([]compliance.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT employee_id, date, clock_in, clock_out, break_start, break_end,
		       total_hours, overtime_hours
		FROM time_entries
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	return s.queryEntries(ctx, query, employeeID, period.From.String(), period.To.String())
}

// ListOpenEntriesBefore returns open sessions dated strictly before the
// given date: the forgotten punches the stale session sweep surfaces.
func (s *Store) ListOpenEntriesBefore(ctx context.Context, date compliance.Date) ([]compliance.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT employee_id, date, clock_in, clock_out, break_start, break_end,
		       total_hours, overtime_hours
		FROM time_entries
		WHERE clock_out IS NULL AND date < ?
		ORDER BY date ASC, employee_id ASC
	`

	return s.queryEntries(ctx, query, date.String())
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]compliance.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []compliance.TimeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (compliance.TimeEntry, error) {
	var (
		entry                          compliance.TimeEntry
		dateStr, clockIn               string
		clockOut, breakStart, breakEnd sql.NullString
		totalHours, overtimeHours      sql.NullString
	)

	err := rows.Scan(
		&entry.EmployeeID, &dateStr, &clockIn,
		&clockOut, &breakStart, &breakEnd,
		&totalHours, &overtimeHours,
	)
	if err != nil {
		return entry, fmt.Errorf("failed to scan time entry: %w", err)
	}

	if entry.Date, err = compliance.ParseDate(dateStr); err != nil {
		return entry, err
	}
	if entry.ClockIn, err = time.Parse(time.RFC3339, clockIn); err != nil {
		return entry, fmt.Errorf("failed to parse clock_in: %w", err)
	}
	entry.ClockOut = parseNullTime(clockOut)
	entry.BreakStart = parseNullTime(breakStart)
	entry.BreakEnd = parseNullTime(breakEnd)
	entry.TotalHours = parseNullDecimal(totalHours)
	entry.OvertimeHours = parseNullDecimal(overtimeHours)

	return entry, nil
}

// =============================================================================
// TIER POLICY
// =============================================================================

// SavePolicy persists the tier policy configuration.
func (s *Store) SavePolicy(ctx context.Context, p compliance.TierPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO compliance_policy (id, config_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		string(configJSON), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetPolicy returns the stored tier policy, or the default when none has
// been configured yet.
func (s *Store) GetPolicy(ctx context.Context) (compliance.TierPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT config_json FROM compliance_policy WHERE id = 1").Scan(&configJSON)

	if err == sql.ErrNoRows {
		return compliance.DefaultTierPolicy(), nil
	}
	if err != nil {
		return compliance.TierPolicy{}, err
	}

	var p compliance.TierPolicy
	if err := json.Unmarshal([]byte(configJSON), &p); err != nil {
		return compliance.TierPolicy{}, fmt.Errorf("corrupt policy config: %w", err)
	}
	return p, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"time_entries", "department_schedules", "employees", "departments", "compliance_policy"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
