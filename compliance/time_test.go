package compliance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/attendance-engine/compliance"
)

func TestTimeOfDay_ParseAndFormat(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
	}{
		{"00:00", 0},
		{"09:00", 540},
		{"18:30", 1110},
		{"23:59", 1439},
		{"09:00:00", 540}, // seconds are accepted and dropped
	}

	for _, tc := range cases {
		td, err := compliance.ParseTimeOfDay(tc.in)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", tc.in, err)
		}
		if int(td) != tc.minutes {
			t.Errorf("ParseTimeOfDay(%q) = %d minutes, want %d", tc.in, int(td), tc.minutes)
		}
	}

	if _, err := compliance.ParseTimeOfDay("9am"); err == nil {
		t.Error("expected error for non-HH:MM input")
	}

	if got := compliance.NewTimeOfDay(18, 5).String(); got != "18:05" {
		t.Errorf("String() = %q, want 18:05", got)
	}
}

func TestTimeOfDay_MinutesSince(t *testing.T) {
	start := compliance.NewTimeOfDay(9, 0)

	if d := compliance.NewTimeOfDay(9, 20).MinutesSince(start); d != 20 {
		t.Errorf("expected 20, got %d", d)
	}
	if d := compliance.NewTimeOfDay(8, 40).MinutesSince(start); d != -20 {
		t.Errorf("expected -20 for early arrival, got %d", d)
	}
}

func TestPeriod_Days(t *testing.T) {
	// GIVEN: An inclusive Monday-to-Friday range
	// WHEN: Enumerating its days
	// THEN: Both endpoints included, ascending order

	from := compliance.NewDate(2025, time.March, 3)
	period := compliance.Period{From: from, To: from.AddDays(4)}

	days := period.Days()
	if len(days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(days))
	}
	if !days[0].Equal(from) || !days[4].Equal(from.AddDays(4)) {
		t.Errorf("endpoints wrong: %s .. %s", days[0], days[4])
	}

	single := compliance.Period{From: from, To: from}
	if len(single.Days()) != 1 {
		t.Errorf("single-day period should enumerate one day")
	}
}

func TestPeriod_Validate(t *testing.T) {
	from := compliance.NewDate(2025, time.March, 3)

	if err := (compliance.Period{From: from, To: from}).Validate(); err != nil {
		t.Errorf("single-day period should be valid, got %v", err)
	}
	err := (compliance.Period{From: from, To: from.AddDays(-1)}).Validate()
	if !errors.Is(err, compliance.ErrEmptyRange) {
		t.Errorf("expected ErrEmptyRange, got %v", err)
	}
}

func TestDate_NormalizedAsMapKey(t *testing.T) {
	// GIVEN: The same calendar date built from different wall-clock instants
	// WHEN: Using Date values as map keys
	// THEN: They collide; Date construction normalizes to UTC midnight

	lima := time.FixedZone("-05", -5*60*60)
	a := compliance.DateOf(time.Date(2025, time.March, 3, 23, 50, 0, 0, time.UTC))
	b := compliance.DateOf(time.Date(2025, time.March, 3, 0, 10, 0, 0, lima))

	seen := map[compliance.Date]int{}
	seen[a]++
	seen[b]++
	if len(seen) != 1 {
		t.Errorf("expected one key for one calendar date, got %d", len(seen))
	}
}

func TestParseDate(t *testing.T) {
	d, err := compliance.ParseDate("2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-03" {
		t.Errorf("round trip failed: %s", d)
	}
	if d.Weekday() != time.Monday {
		t.Errorf("expected Monday, got %s", d.Weekday())
	}

	if _, err := compliance.ParseDate("03/03/2025"); err == nil {
		t.Error("expected error for non-ISO input")
	}
}
