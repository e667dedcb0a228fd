package compliance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS REPORT - Worked/overtime rollups for the reporting dashboards
// =============================================================================

// HoursBucket is one row of a rollup: a label plus summed hours.
type HoursBucket struct {
	Label    string          // "2025-03-10", "2025-W11", or "2025-03"
	Hours    decimal.Decimal
	Overtime decimal.Decimal
}

// HoursReport groups worked and overtime hours by day, ISO week, and month.
type HoursReport struct {
	Daily   []HoursBucket
	Weekly  []HoursBucket
	Monthly []HoursBucket

	TotalHours    decimal.Decimal
	TotalOvertime decimal.Decimal
}

// HoursRollup buckets closed entries by day, ISO week, and month. Open
// sessions have no derived hours yet and are skipped, matching the
// aggregation rule for compliance summaries.
func HoursRollup(entries []TimeEntry) HoursReport {
	daily := map[string]*HoursBucket{}
	weekly := map[string]*HoursBucket{}
	monthly := map[string]*HoursBucket{}

	report := HoursReport{TotalHours: decimal.Zero, TotalOvertime: decimal.Zero}

	for _, e := range entries {
		if e.TotalHours == nil {
			continue
		}
		hours := *e.TotalHours
		overtime := decimal.Zero
		if e.OvertimeHours != nil {
			overtime = *e.OvertimeHours
		}

		year, week := e.Date.ISOWeek()
		add(daily, e.Date.String(), hours, overtime)
		add(weekly, fmt.Sprintf("%d-W%02d", year, week), hours, overtime)
		add(monthly, fmt.Sprintf("%04d-%02d", e.Date.Year(), int(e.Date.Month())), hours, overtime)

		report.TotalHours = report.TotalHours.Add(hours)
		report.TotalOvertime = report.TotalOvertime.Add(overtime)
	}

	report.Daily = sorted(daily)
	report.Weekly = sorted(weekly)
	report.Monthly = sorted(monthly)
	report.TotalHours = report.TotalHours.Round(2)
	report.TotalOvertime = report.TotalOvertime.Round(2)
	return report
}

func add(buckets map[string]*HoursBucket, label string, hours, overtime decimal.Decimal) {
	b, ok := buckets[label]
	if !ok {
		b = &HoursBucket{Label: label, Hours: decimal.Zero, Overtime: decimal.Zero}
		buckets[label] = b
	}
	b.Hours = b.Hours.Add(hours)
	b.Overtime = b.Overtime.Add(overtime)
}

func sorted(buckets map[string]*HoursBucket) []HoursBucket {
	out := make([]HoursBucket, 0, len(buckets))
	for _, b := range buckets {
		b.Hours = b.Hours.Round(2)
		b.Overtime = b.Overtime.Round(2)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
