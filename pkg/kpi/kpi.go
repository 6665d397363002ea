// Package kpi computes the four business KPIs over a run's reconciled data.
// The algorithm is specified once, here, and implemented by two interchangeable
// backends: an in-memory engine over the Unified View and a relational engine
// over the persisted tables. Both must agree on output exactly; Diff verifies
// that contract.
package kpi

import (
	"context"
	"errors"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/money"
)

// DefaultTopLimit is the default size of the top-customers result.
const DefaultTopLimit = 10

// DefaultWindowDays is the default lookback for the top-customers window.
const DefaultWindowDays = 30

// Window is a bounded UTC interval with exclusive bounds.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// WindowEndingAt returns the window of the given length ending at now. Both
// bounds are UTC instants and both are exclusive: an order timestamped
// exactly days before now is outside the window, as is one exactly at now.
func WindowEndingAt(now time.Time, days int) Window {
	to := now.UTC()
	return Window{From: to.AddDate(0, 0, -days), To: to}
}

// Contains reports whether t falls strictly between the window bounds.
func (w Window) Contains(t time.Time) bool {
	u := t.UTC()
	return u.After(w.From) && u.Before(w.To)
}

// MonthKey is the canonical year-month grouping key for a UTC instant.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// RepeatCustomer is one row of the repeat-customers KPI.
type RepeatCustomer struct {
	CustomerID string       `db:"customer_id" json:"customer_id"`
	OrderCount int          `db:"order_count" json:"order_count"`
	TotalSpend money.Amount `db:"total_spend" json:"total_spend"`
}

// MonthlyTrend is one row of the monthly order trends KPI.
type MonthlyTrend struct {
	Month      string       `db:"month" json:"month"` // YYYY-MM
	OrderCount int          `db:"order_count" json:"order_count"`
	Revenue    money.Amount `db:"revenue" json:"revenue"`
}

// RegionRevenue is one row of the regional revenue KPI.
type RegionRevenue struct {
	Region     string       `db:"region" json:"region"`
	Revenue    money.Amount `db:"revenue" json:"revenue"`
	OrderCount int          `db:"order_count" json:"order_count"`
}

// TopCustomer is one row of the top-customers KPI.
type TopCustomer struct {
	CustomerID string       `db:"customer_id" json:"customer_id"`
	TotalSpend money.Amount `db:"total_spend" json:"total_spend"`
	OrderCount int          `db:"order_count" json:"order_count"`
}

// Results bundles the four KPI result sets of one computation.
type Results struct {
	RepeatCustomers []RepeatCustomer `json:"repeat_customers"`
	MonthlyTrends   []MonthlyTrend   `json:"monthly_trends"`
	RegionalRevenue []RegionRevenue  `json:"regional_revenue"`
	// RegionlessOrders counts orders excluded from the regional KPI because
	// no region could be attributed.
	RegionlessOrders int           `json:"regionless_orders"`
	TopCustomers     []TopCustomer `json:"top_customers"`
	Window           Window        `json:"window"`
}

// Engine is the backend-agnostic KPI contract. Implementations are read-only
// with respect to entity data and safe to run concurrently once the load
// phase has completed.
type Engine interface {
	// RepeatCustomers returns customers with >= 2 distinct orders, ordered by
	// order count descending, ties broken by customer id ascending.
	RepeatCustomers(ctx context.Context) ([]RepeatCustomer, error)

	// MonthlyTrends groups orders by UTC year-month, chronological ascending.
	// Months absent from the data are never synthesized.
	MonthlyTrends(ctx context.Context) ([]MonthlyTrend, error)

	// RegionalRevenue groups orders by the owning customer's region, revenue
	// descending (ties by region ascending). The int return counts orders
	// with no attributable region, which are excluded from the rows.
	RegionalRevenue(ctx context.Context) ([]RegionRevenue, int, error)

	// TopCustomers ranks customers by spend inside the window, ties broken
	// by customer id ascending, truncated to limit. Customers with no
	// in-window orders never appear.
	TopCustomers(ctx context.Context, window Window, limit int) ([]TopCustomer, error)
}

// ScopedEngine is an Engine that can narrow its computation to a fixed set of
// orders. The relational tables accumulate orders across days, so comparing
// them against a single run's in-memory view requires restricting the SQL
// side to the orders that view holds.
type ScopedEngine interface {
	Engine

	// ScopedTo returns an engine that aggregates only the given orders.
	ScopedTo(orderIDs []string) Engine
}

// Compute runs all four KPIs against one engine with a shared window anchored
// at now.
func Compute(ctx context.Context, engine Engine, now time.Time, windowDays, topLimit int) (*Results, error) {
	if engine == nil {
		return nil, models.NewRunError(models.IssueBackendUnavailable, errors.New("no KPI engine provided"))
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if topLimit <= 0 {
		topLimit = DefaultTopLimit
	}

	window := WindowEndingAt(now, windowDays)
	results := &Results{Window: window}

	var err error
	if results.RepeatCustomers, err = engine.RepeatCustomers(ctx); err != nil {
		return nil, err
	}
	if results.MonthlyTrends, err = engine.MonthlyTrends(ctx); err != nil {
		return nil, err
	}
	if results.RegionalRevenue, results.RegionlessOrders, err = engine.RegionalRevenue(ctx); err != nil {
		return nil, err
	}
	if results.TopCustomers, err = engine.TopCustomers(ctx, window, topLimit); err != nil {
		return nil, err
	}
	return results, nil
}
