package kpi

import (
	"context"
	"errors"
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/money"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// MemoryEngine computes KPIs directly over a Unified View snapshot.
type MemoryEngine struct {
	view *models.UnifiedView
}

// NewMemoryEngine creates an in-memory KPI engine over the given view.
func NewMemoryEngine(view *models.UnifiedView) *MemoryEngine {
	return &MemoryEngine{view: view}
}

func (e *MemoryEngine) ready() error {
	if e == nil || e.view == nil {
		return models.NewRunError(models.IssueBackendUnavailable, errors.New("in-memory engine has no unified view"))
	}
	return nil
}

type customerAgg struct {
	count int
	spend money.Amount
}

func (e *MemoryEngine) aggregateByCustomer(filter func(models.ResolvedOrder) bool) map[string]*customerAgg {
	byCustomer := make(map[string]*customerAgg)
	for _, o := range e.view.Orders {
		if filter != nil && !filter(o) {
			continue
		}
		agg, ok := byCustomer[o.Order.CustomerID]
		if !ok {
			agg = &customerAgg{}
			byCustomer[o.Order.CustomerID] = agg
		}
		agg.count++
		agg.spend = agg.spend.Add(o.Order.Total)
	}
	return byCustomer
}

// RepeatCustomers implements Engine.
func (e *MemoryEngine) RepeatCustomers(ctx context.Context) ([]RepeatCustomer, error) {
	_, span := tracing.StartSpan(ctx, "kpi.MemoryEngine.RepeatCustomers")
	defer span.End()

	if err := e.ready(); err != nil {
		return nil, err
	}

	rows := make([]RepeatCustomer, 0)
	for id, agg := range e.aggregateByCustomer(nil) {
		if agg.count < 2 {
			continue
		}
		rows = append(rows, RepeatCustomer{CustomerID: id, OrderCount: agg.count, TotalSpend: agg.spend})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OrderCount != rows[j].OrderCount {
			return rows[i].OrderCount > rows[j].OrderCount
		}
		return rows[i].CustomerID < rows[j].CustomerID
	})
	return rows, nil
}

// MonthlyTrends implements Engine.
func (e *MemoryEngine) MonthlyTrends(ctx context.Context) ([]MonthlyTrend, error) {
	_, span := tracing.StartSpan(ctx, "kpi.MemoryEngine.MonthlyTrends")
	defer span.End()

	if err := e.ready(); err != nil {
		return nil, err
	}

	type monthAgg struct {
		count   int
		revenue money.Amount
	}
	byMonth := make(map[string]*monthAgg)
	for _, o := range e.view.Orders {
		key := MonthKey(o.Order.OrderedAt)
		agg, ok := byMonth[key]
		if !ok {
			agg = &monthAgg{}
			byMonth[key] = agg
		}
		agg.count++
		agg.revenue = agg.revenue.Add(o.Order.Total)
	}

	rows := make([]MonthlyTrend, 0, len(byMonth))
	for month, agg := range byMonth {
		rows = append(rows, MonthlyTrend{Month: month, OrderCount: agg.count, Revenue: agg.revenue})
	}
	// YYYY-MM sorts chronologically as text.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows, nil
}

// RegionalRevenue implements Engine.
func (e *MemoryEngine) RegionalRevenue(ctx context.Context) ([]RegionRevenue, int, error) {
	_, span := tracing.StartSpan(ctx, "kpi.MemoryEngine.RegionalRevenue")
	defer span.End()

	if err := e.ready(); err != nil {
		return nil, 0, err
	}

	type regionAgg struct {
		count   int
		revenue money.Amount
	}
	byRegion := make(map[string]*regionAgg)
	regionless := 0
	for _, o := range e.view.Orders {
		if o.Order.Region == "" {
			regionless++
			continue
		}
		agg, ok := byRegion[o.Order.Region]
		if !ok {
			agg = &regionAgg{}
			byRegion[o.Order.Region] = agg
		}
		agg.count++
		agg.revenue = agg.revenue.Add(o.Order.Total)
	}

	rows := make([]RegionRevenue, 0, len(byRegion))
	for region, agg := range byRegion {
		rows = append(rows, RegionRevenue{Region: region, Revenue: agg.revenue, OrderCount: agg.count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].Region < rows[j].Region
	})
	return rows, regionless, nil
}

// TopCustomers implements Engine.
func (e *MemoryEngine) TopCustomers(ctx context.Context, window Window, limit int) ([]TopCustomer, error) {
	_, span := tracing.StartSpan(ctx, "kpi.MemoryEngine.TopCustomers")
	defer span.End()

	if err := e.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	byCustomer := e.aggregateByCustomer(func(o models.ResolvedOrder) bool {
		return window.Contains(o.Order.OrderedAt)
	})

	rows := make([]TopCustomer, 0, len(byCustomer))
	for id, agg := range byCustomer {
		rows = append(rows, TopCustomer{CustomerID: id, TotalSpend: agg.spend, OrderCount: agg.count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalSpend != rows[j].TotalSpend {
			return rows[i].TotalSpend > rows[j].TotalSpend
		}
		return rows[i].CustomerID < rows[j].CustomerID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
