// Package store provides in-memory implementations of the compliance
// storage collaborators, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/attendance-engine/compliance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	schedules map[scheduleKey]compliance.ScheduleWindow
	employees map[string]compliance.Employee
	entries   map[entryKey]compliance.TimeEntry
}

type scheduleKey struct {
	DepartmentID string
	DayOfWeek    time.Weekday
}

type entryKey struct {
	EmployeeID string
	Date       compliance.Date
}

func NewMemory() *Memory {
	return &Memory{
		schedules: make(map[scheduleKey]compliance.ScheduleWindow),
		employees: make(map[string]compliance.Employee),
		entries:   make(map[entryKey]compliance.TimeEntry),
	}
}

// =============================================================================
// SCHEDULE SOURCE
// =============================================================================

// PutScheduleWindow upserts the window for (department, weekday).
func (m *Memory) PutScheduleWindow(w compliance.ScheduleWindow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[scheduleKey{w.DepartmentID, w.DayOfWeek}] = w
}

func (m *Memory) GetScheduleWindow(_ context.Context, departmentID string, day time.Weekday) (compliance.ScheduleWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.schedules[scheduleKey{departmentID, day}]
	if !ok {
		return compliance.ScheduleWindow{}, compliance.ErrScheduleNotFound
	}
	return w, nil
}

// =============================================================================
// EMPLOYEE SOURCE
// =============================================================================

func (m *Memory) PutEmployee(e compliance.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
}

func (m *Memory) GetEmployee(_ context.Context, employeeID string) (compliance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[employeeID]
	if !ok {
		return compliance.Employee{}, compliance.ErrEmployeeNotFound
	}
	return e, nil
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (m *Memory) GetTimeEntry(_ context.Context, employeeID string, date compliance.Date) (compliance.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[entryKey{employeeID, date}]
	if !ok {
		return compliance.TimeEntry{}, compliance.ErrEntryNotFound
	}
	return e, nil
}

func (m *Memory) ListTimeEntries(_ context.Context, employeeID string, period compliance.Period) ([]compliance.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []compliance.TimeEntry
	for k, e := range m.entries {
		if k.EmployeeID == employeeID && period.Contains(k.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) CreateTimeEntry(_ context.Context, entry compliance.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{entry.EmployeeID, entry.Date}
	if _, exists := m.entries[k]; exists {
		return compliance.ErrDuplicateEntry
	}
	m.entries[k] = entry
	return nil
}

func (m *Memory) UpdateTimeEntry(_ context.Context, entry compliance.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{entry.EmployeeID, entry.Date}
	if _, exists := m.entries[k]; !exists {
		return compliance.ErrEntryNotFound
	}
	m.entries[k] = entry
	return nil
}
