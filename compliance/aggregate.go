package compliance

import "github.com/shopspring/decimal"

// =============================================================================
// RANGE AGGREGATOR - []ComplianceRecord -> ComplianceSummary
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Aggregate folds a sequence of compliance records into one summary. This is
// the single shared implementation: every surface that needs a summary calls
// here, the fold is never reimplemented inline.
//
// All percentage and count fields consider working-day records only.
// Open sessions contribute no hours (excluded, not zero-filled). The fold is
// order-independent; record ordering for display is the caller's concern.
func Aggregate(records []ComplianceRecord) ComplianceSummary {
	var summary ComplianceSummary

	totalDelay := 0
	totalWorked := decimal.Zero
	totalExpected := decimal.Zero

	for _, r := range records {
		if !r.IsWorkingDay {
			continue
		}
		summary.TotalWorkingDays++
		totalExpected = totalExpected.Add(r.ExpectedHours)
		if r.TotalHours != nil {
			totalWorked = totalWorked.Add(*r.TotalHours)
		}

		switch {
		case r.ArrivalStatus == ArrivalPunctual:
			summary.PunctualDays++
		case r.ArrivalStatus.IsLate():
			summary.LateDays++
			if r.ArrivalDelayMinutes != nil {
				totalDelay += *r.ArrivalDelayMinutes
			}
		case r.ArrivalStatus == ArrivalAbsent:
			summary.AbsentDays++
		}
		// DESCONOCIDO working days count toward the total but no bucket.
	}

	summary.PunctualityPercentage = percentage(summary.PunctualDays, summary.TotalWorkingDays)
	summary.AbsenteeismPercentage = percentage(summary.AbsentDays, summary.TotalWorkingDays)

	// Mean delay over late days only. Dividing by total working days would
	// understate how late the late arrivals actually are.
	if summary.LateDays > 0 {
		summary.AvgDelayMinutes = decimal.NewFromInt(int64(totalDelay)).
			Div(decimal.NewFromInt(int64(summary.LateDays))).Round(2)
	} else {
		summary.AvgDelayMinutes = decimal.Zero
	}

	summary.TotalHoursWorked = totalWorked.Round(2)
	summary.TotalExpectedHours = totalExpected.Round(2)
	summary.HoursDifference = totalWorked.Sub(totalExpected).Round(2)

	return summary
}

// percentage returns count/total*100 rounded to two decimals, zero when the
// denominator is zero.
func percentage(count, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(hundred).Round(2)
}
