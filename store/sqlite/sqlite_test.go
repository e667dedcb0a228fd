package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/compliance"
	"github.com/warp/attendance-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// UNIQUENESS INVARIANT
// =============================================================================

func TestCreateTimeEntry_DuplicateDay_Rejected(t *testing.T) {
	// GIVEN: An entry already stored for (emp-1, 2025-03-03)
	// WHEN: Inserting a second entry for the same pair
	// THEN: ErrDuplicateEntry from the unique index, not a second row

	store := newTestStore(t)
	ctx := context.Background()
	date := compliance.NewDate(2025, time.March, 3)

	entry := compliance.TimeEntry{
		EmployeeID: "emp-1",
		Date:       date,
		ClockIn:    date.Time().Add(9 * time.Hour),
	}
	require.NoError(t, store.CreateTimeEntry(ctx, entry))

	err := store.CreateTimeEntry(ctx, entry)
	assert.True(t, errors.Is(err, compliance.ErrDuplicateEntry))

	// Same employee, next day is fine
	next := entry
	next.Date = date.AddDays(1)
	next.ClockIn = next.Date.Time().Add(9 * time.Hour)
	assert.NoError(t, store.CreateTimeEntry(ctx, next))
}

func TestUpdateTimeEntry_Missing_Rejected(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateTimeEntry(context.Background(), compliance.TimeEntry{
		EmployeeID: "emp-ghost",
		Date:       compliance.NewDate(2025, time.March, 3),
		ClockIn:    time.Now(),
	})
	assert.True(t, errors.Is(err, compliance.ErrEntryNotFound))
}

// =============================================================================
// ENTRY ROUND TRIP
// =============================================================================

func TestTimeEntry_RoundTrip_PreservesNullsAndOffsets(t *testing.T) {
	// GIVEN: A closed entry with break, derived hours, and a -05:00 offset
	// WHEN: Storing and reloading it
	// THEN: Optional fields, decimal values, and the punch offset survive

	store := newTestStore(t)
	ctx := context.Background()

	lima := time.FixedZone("-05", -5*60*60)
	date := compliance.NewDate(2025, time.March, 3)
	in := time.Date(2025, time.March, 3, 9, 20, 0, 0, lima)
	out := time.Date(2025, time.March, 3, 18, 0, 0, 0, lima)
	bs := time.Date(2025, time.March, 3, 13, 0, 0, 0, lima)
	be := time.Date(2025, time.March, 3, 14, 0, 0, 0, lima)
	total := decimal.NewFromFloat(7.67)
	overtime := decimal.Zero

	require.NoError(t, store.CreateTimeEntry(ctx, compliance.TimeEntry{
		EmployeeID: "emp-1", Date: date,
		ClockIn: in, ClockOut: &out, BreakStart: &bs, BreakEnd: &be,
		TotalHours: &total, OvertimeHours: &overtime,
	}))

	got, err := store.GetTimeEntry(ctx, "emp-1", date)
	require.NoError(t, err)

	assert.True(t, got.ClockIn.Equal(in))
	require.NotNil(t, got.ClockOut)
	assert.True(t, got.ClockOut.Equal(out))
	// The wall-clock reading must survive storage, not just the instant:
	// delay classification depends on it.
	assert.Equal(t, 9, got.ClockIn.Hour())
	assert.Equal(t, 20, got.ClockIn.Minute())
	require.NotNil(t, got.TotalHours)
	assert.True(t, got.TotalHours.Equal(total))
	assert.True(t, got.OvertimeHours.IsZero())

	// An open entry keeps its nils
	openDate := date.AddDays(1)
	require.NoError(t, store.CreateTimeEntry(ctx, compliance.TimeEntry{
		EmployeeID: "emp-1", Date: openDate, ClockIn: openDate.Time().Add(9 * time.Hour),
	}))
	open, err := store.GetTimeEntry(ctx, "emp-1", openDate)
	require.NoError(t, err)
	assert.Nil(t, open.ClockOut)
	assert.Nil(t, open.BreakStart)
	assert.Nil(t, open.TotalHours)
}

func TestListTimeEntries_RangeInclusiveAscending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mon := compliance.NewDate(2025, time.March, 3)

	for i := 0; i < 5; i++ {
		d := mon.AddDays(i)
		require.NoError(t, store.CreateTimeEntry(ctx, compliance.TimeEntry{
			EmployeeID: "emp-1", Date: d, ClockIn: d.Time().Add(9 * time.Hour),
		}))
	}

	entries, err := store.ListTimeEntries(ctx, "emp-1",
		compliance.Period{From: mon.AddDays(1), To: mon.AddDays(3)})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Date.Equal(mon.AddDays(1)), "range start is inclusive")
	assert.True(t, entries[2].Date.Equal(mon.AddDays(3)), "range end is inclusive")
}

func TestListOpenEntriesBefore_SkipsTodayAndClosed(t *testing.T) {
	// GIVEN: A closed Monday entry, an open Tuesday entry, an open Wednesday entry
	// WHEN: Sweeping with Wednesday as the cutoff
	// THEN: Only the open Tuesday entry is stale

	store := newTestStore(t)
	ctx := context.Background()
	mon := compliance.NewDate(2025, time.March, 3)

	out := mon.Time().Add(18 * time.Hour)
	require.NoError(t, store.CreateTimeEntry(ctx, compliance.TimeEntry{
		EmployeeID: "emp-1", Date: mon, ClockIn: mon.Time().Add(9 * time.Hour), ClockOut: &out,
	}))
	for i := 1; i <= 2; i++ {
		d := mon.AddDays(i)
		require.NoError(t, store.CreateTimeEntry(ctx, compliance.TimeEntry{
			EmployeeID: "emp-1", Date: d, ClockIn: d.Time().Add(9 * time.Hour),
		}))
	}

	stale, err := store.ListOpenEntriesBefore(ctx, mon.AddDays(2))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.True(t, stale[0].Date.Equal(mon.AddDays(1)))
}

// =============================================================================
// SCHEDULES
// =============================================================================

func TestSaveWeek_ReplacesExistingWindows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := compliance.DefaultWeek("dept-ops",
		compliance.NewTimeOfDay(9, 0), compliance.NewTimeOfDay(18, 0))
	require.NoError(t, store.SaveWeek(ctx, first))

	second := compliance.DefaultWeek("dept-ops",
		compliance.NewTimeOfDay(8, 0), compliance.NewTimeOfDay(17, 0))
	require.NoError(t, store.SaveWeek(ctx, second))

	windows, err := store.ListScheduleWindows(ctx, "dept-ops")
	require.NoError(t, err)
	require.Len(t, windows, 7)

	monday, err := store.GetScheduleWindow(ctx, "dept-ops", time.Monday)
	require.NoError(t, err)
	assert.Equal(t, "08:00", monday.Start.String())
	assert.Equal(t, "17:00", monday.End.String())
	assert.True(t, monday.IsWorkingDay)

	sunday, err := store.GetScheduleWindow(ctx, "dept-ops", time.Sunday)
	require.NoError(t, err)
	assert.False(t, sunday.IsWorkingDay)
}

func TestGetScheduleWindow_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetScheduleWindow(context.Background(), "dept-ghost", time.Monday)
	assert.True(t, errors.Is(err, compliance.ErrScheduleNotFound))
}

// =============================================================================
// POLICY
// =============================================================================

func TestPolicy_DefaultThenRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	policy, err := store.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, compliance.DefaultTierPolicy(), policy)

	custom := compliance.TierPolicy{GraceMinutes: 5, MinorLimit: 20, ModerateLimit: 60}
	require.NoError(t, store.SavePolicy(ctx, custom))

	policy, err = store.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, policy)
}
