/*
scheduler.go - Stale session scanner

PURPOSE:
  Periodically scans for time entries that were never clocked out and
  auto-closes the ones older than the cutoff. An employee who forgets to
  punch out would otherwise keep an open session forever and poison the
  in-progress detection for later days.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - An entry is stale when its date is before today (an open entry for
    today is a legitimate in-progress session)
  - Stale entries are closed at the scheduled end of the employee's
    working day, at the wall-clock time in the punch's own location,
    with hours computed the same way a manual clock-out would compute
    them; a break that was never ended is closed at that same instant
  - Entries whose schedule cannot be resolved, or whose punches fall at
    or after the scheduled end, are logged and left open for manual
    review

CONFIGURATION:
  - CheckInterval: How often to scan (default: 1 hour)
  - Enabled: Whether the scanner is active (default: true)

USAGE:
  scanner := NewStaleSessionScanner(store, clock)
  scanner.Start()
  // ... later
  scanner.Stop()

SEE ALSO:
  - tracker/timeclock.go: Manual clock-out path
  - handlers.go: ListOpenSessions endpoint (admin visibility)
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/compliance"
	"github.com/warp/attendance-engine/store/sqlite"
)

// StaleSessionScanner auto-closes forgotten time clock sessions.
type StaleSessionScanner struct {
	Store         *sqlite.Store
	Clock         compliance.Clock
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewStaleSessionScanner creates a new scanner.
func NewStaleSessionScanner(store *sqlite.Store, clock compliance.Clock) *StaleSessionScanner {
	return &StaleSessionScanner{
		Store:         store,
		Clock:         clock,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scanner.
func (ss *StaleSessionScanner) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Scanner] Disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Scanner] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scanner.
func (ss *StaleSessionScanner) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		log.Println("[Scanner] Stopped")
	}
}

func (ss *StaleSessionScanner) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.scanAndClose()

	for {
		select {
		case <-ss.ticker.C:
			ss.scanAndClose()
		case <-ss.stop:
			return
		}
	}
}

func (ss *StaleSessionScanner) scanAndClose() {
	ctx := context.Background()
	today := ss.Clock.Today()

	entries, err := ss.Store.ListOpenEntriesBefore(ctx, today)
	if err != nil {
		log.Printf("[Scanner] Error listing open entries: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Printf("[Scanner] Found %d stale sessions before %s", len(entries), today)

	closedCount := 0
	skippedCount := 0

	for _, entry := range entries {
		if err := ss.closeEntry(ctx, entry); err != nil {
			log.Printf("[Scanner] Leaving %s/%s open: %v", entry.EmployeeID, entry.Date, err)
			skippedCount++
			continue
		}
		closedCount++
	}

	log.Printf("[Scanner] Completed: %d closed, %d left for review", closedCount, skippedCount)
}

// closeEntry clamps the session to the scheduled end of that day.
func (ss *StaleSessionScanner) closeEntry(ctx context.Context, entry compliance.TimeEntry) error {
	emp, err := ss.Store.GetEmployee(ctx, entry.EmployeeID)
	if err != nil {
		return err
	}

	window, err := ss.Store.GetScheduleWindow(ctx, emp.DepartmentID, entry.Date.Weekday())
	if err != nil {
		return err
	}

	// The scheduled end is a wall-clock time. Build the instant in the
	// punch's own location so the elapsed time matches what the wall
	// clock showed, whatever offset the punch was recorded with.
	clockOut := time.Date(entry.Date.Year(), entry.Date.Month(), entry.Date.Day(),
		window.End.Hour(), window.End.Minute(), 0, 0, entry.ClockIn.Location())
	if !clockOut.After(entry.ClockIn) {
		// Clocked in at or after the scheduled end; there is no defensible
		// clock-out to synthesize, so leave the session for manual review.
		return fmt.Errorf("clock-in at or after scheduled end")
	}

	// A break that was never ended must be closed too, or the row would be
	// stored in a state the evaluator rejects as corrupt.
	if entry.OnBreak() {
		if !clockOut.After(*entry.BreakStart) {
			return fmt.Errorf("open break started at or after scheduled end")
		}
		entry.BreakEnd = &clockOut
	}

	worked := clockOut.Sub(entry.ClockIn) - entry.BreakDuration()
	total := decimal.NewFromFloat(worked.Hours()).Round(2)
	overtime := total.Sub(window.ExpectedHours())
	if overtime.IsNegative() {
		overtime = decimal.Zero
	}

	entry.ClockOut = &clockOut
	entry.TotalHours = &total
	entry.OvertimeHours = &overtime

	if err := ss.Store.UpdateTimeEntry(ctx, entry); err != nil {
		return err
	}

	log.Printf("[Scanner] Closed %s/%s at %s (%s hours)",
		entry.EmployeeID, entry.Date, clockOut.Format("15:04"), total)
	return nil
}

// RunNow triggers an immediate scan (for testing/admin).
func (ss *StaleSessionScanner) RunNow() {
	ss.scanAndClose()
}
