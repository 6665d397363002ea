package kpi

import "fmt"

// Diff compares two result sets field by field and returns a human-readable
// line per discrepancy. An empty slice means the backends agree exactly.
func Diff(a, b *Results) []string {
	diffs := make([]string, 0)
	if a == nil || b == nil {
		if a != b {
			diffs = append(diffs, "one result set is nil")
		}
		return diffs
	}

	if len(a.RepeatCustomers) != len(b.RepeatCustomers) {
		diffs = append(diffs, fmt.Sprintf("repeat_customers: %d rows vs %d rows", len(a.RepeatCustomers), len(b.RepeatCustomers)))
	} else {
		for i := range a.RepeatCustomers {
			if a.RepeatCustomers[i] != b.RepeatCustomers[i] {
				diffs = append(diffs, fmt.Sprintf("repeat_customers[%d]: %+v vs %+v", i, a.RepeatCustomers[i], b.RepeatCustomers[i]))
			}
		}
	}

	if len(a.MonthlyTrends) != len(b.MonthlyTrends) {
		diffs = append(diffs, fmt.Sprintf("monthly_trends: %d rows vs %d rows", len(a.MonthlyTrends), len(b.MonthlyTrends)))
	} else {
		for i := range a.MonthlyTrends {
			if a.MonthlyTrends[i] != b.MonthlyTrends[i] {
				diffs = append(diffs, fmt.Sprintf("monthly_trends[%d]: %+v vs %+v", i, a.MonthlyTrends[i], b.MonthlyTrends[i]))
			}
		}
	}

	if len(a.RegionalRevenue) != len(b.RegionalRevenue) {
		diffs = append(diffs, fmt.Sprintf("regional_revenue: %d rows vs %d rows", len(a.RegionalRevenue), len(b.RegionalRevenue)))
	} else {
		for i := range a.RegionalRevenue {
			if a.RegionalRevenue[i] != b.RegionalRevenue[i] {
				diffs = append(diffs, fmt.Sprintf("regional_revenue[%d]: %+v vs %+v", i, a.RegionalRevenue[i], b.RegionalRevenue[i]))
			}
		}
	}
	if a.RegionlessOrders != b.RegionlessOrders {
		diffs = append(diffs, fmt.Sprintf("regionless_orders: %d vs %d", a.RegionlessOrders, b.RegionlessOrders))
	}

	if len(a.TopCustomers) != len(b.TopCustomers) {
		diffs = append(diffs, fmt.Sprintf("top_customers: %d rows vs %d rows", len(a.TopCustomers), len(b.TopCustomers)))
	} else {
		for i := range a.TopCustomers {
			if a.TopCustomers[i] != b.TopCustomers[i] {
				diffs = append(diffs, fmt.Sprintf("top_customers[%d]: %+v vs %+v", i, a.TopCustomers[i], b.TopCustomers[i]))
			}
		}
	}

	return diffs
}
