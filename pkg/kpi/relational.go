package kpi

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// RelationalEngine computes KPIs with SQL over the persisted tables. Amounts
// are summed as BIGINT minor units so the arithmetic matches the in-memory
// engine exactly; PostgreSQL widens SUM(bigint) to numeric, hence the casts.
type RelationalEngine struct {
	db     database.DB
	logger ectologger.Logger

	scoped   bool
	orderIDs []string
}

// NewRelationalEngine creates a SQL-backed KPI engine over the full tables.
func NewRelationalEngine(db database.DB, logger ectologger.Logger) *RelationalEngine {
	return &RelationalEngine{db: db, logger: logger}
}

// ScopedTo implements ScopedEngine. The returned engine aggregates only the
// given orders, so its output is comparable with an in-memory engine holding
// the same orders even when the tables carry prior days.
func (e *RelationalEngine) ScopedTo(orderIDs []string) Engine {
	return &RelationalEngine{db: e.db, logger: e.logger, scoped: true, orderIDs: orderIDs}
}

func (e *RelationalEngine) ready() error {
	if e == nil || e.db == nil {
		return models.NewRunError(models.IssueBackendUnavailable, errors.New("relational engine has no database"))
	}
	return nil
}

// scopeFilter returns the order id predicate and its argument when the engine
// is scoped. next is the placeholder ordinal the predicate should use.
func (e *RelationalEngine) scopeFilter(next int) (string, []any) {
	if !e.scoped {
		return "", nil
	}
	return fmt.Sprintf("order_id = ANY($%d)", next), []any{pq.Array(e.orderIDs)}
}

// RepeatCustomers implements Engine.
func (e *RelationalEngine) RepeatCustomers(ctx context.Context) ([]RepeatCustomer, error) {
	ctx, span := tracing.StartSpan(ctx, "kpi.RelationalEngine.RepeatCustomers")
	defer span.End()

	if err := e.ready(); err != nil {
		return nil, err
	}

	query := `
		SELECT customer_id,
		       COUNT(*) AS order_count,
		       COALESCE(SUM(total_minor), 0)::BIGINT AS total_spend
		FROM orders
	`
	filter, args := e.scopeFilter(1)
	if filter != "" {
		query += " WHERE " + filter
	}
	query += `
		GROUP BY customer_id
		HAVING COUNT(*) >= 2
		ORDER BY order_count DESC, customer_id ASC
	`

	rows := make([]RepeatCustomer, 0)
	if err := e.db.SelectContext(ctx, &rows, query, args...); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to compute repeat customers")
		return nil, models.NewRunError(models.IssueBackendUnavailable, err)
	}
	return rows, nil
}

// MonthlyTrends implements Engine.
func (e *RelationalEngine) MonthlyTrends(ctx context.Context) ([]MonthlyTrend, error) {
	ctx, span := tracing.StartSpan(ctx, "kpi.RelationalEngine.MonthlyTrends")
	defer span.End()

	if err := e.ready(); err != nil {
		return nil, err
	}

	query := `
		SELECT to_char(ordered_at_utc AT TIME ZONE 'UTC', 'YYYY-MM') AS month,
		       COUNT(*) AS order_count,
		       COALESCE(SUM(total_minor), 0)::BIGINT AS revenue
		FROM orders
	`
	filter, args := e.scopeFilter(1)
	if filter != "" {
		query += " WHERE " + filter
	}
	query += `
		GROUP BY 1
		ORDER BY 1 ASC
	`

	rows := make([]MonthlyTrend, 0)
	if err := e.db.SelectContext(ctx, &rows, query, args...); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to compute monthly trends")
		return nil, models.NewRunError(models.IssueBackendUnavailable, err)
	}
	return rows, nil
}

// RegionalRevenue implements Engine.
func (e *RelationalEngine) RegionalRevenue(ctx context.Context) ([]RegionRevenue, int, error) {
	ctx, span := tracing.StartSpan(ctx, "kpi.RelationalEngine.RegionalRevenue")
	defer span.End()

	if err := e.ready(); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT region,
		       COALESCE(SUM(total_minor), 0)::BIGINT AS revenue,
		       COUNT(*) AS order_count
		FROM orders
		WHERE region <> ''
	`
	filter, args := e.scopeFilter(1)
	if filter != "" {
		query += " AND " + filter
	}
	query += `
		GROUP BY region
		ORDER BY revenue DESC, region ASC
	`

	rows := make([]RegionRevenue, 0)
	if err := e.db.SelectContext(ctx, &rows, query, args...); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to compute regional revenue")
		return nil, 0, models.NewRunError(models.IssueBackendUnavailable, err)
	}

	countQuery := `SELECT COUNT(*) FROM orders WHERE region = ''`
	if filter != "" {
		countQuery += " AND " + filter
	}
	var regionless int
	if err := e.db.GetContext(ctx, &regionless, countQuery, args...); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to count regionless orders")
		return nil, 0, models.NewRunError(models.IssueBackendUnavailable, err)
	}
	return rows, regionless, nil
}

// TopCustomers implements Engine.
func (e *RelationalEngine) TopCustomers(ctx context.Context, window Window, limit int) ([]TopCustomer, error) {
	ctx, span := tracing.StartSpan(ctx, "kpi.RelationalEngine.TopCustomers")
	defer span.End()

	if err := e.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	// Both window bounds are exclusive, matching Window.Contains.
	query := `
		SELECT customer_id,
		       COALESCE(SUM(total_minor), 0)::BIGINT AS total_spend,
		       COUNT(*) AS order_count
		FROM orders
		WHERE ordered_at_utc > $1 AND ordered_at_utc < $2
	`
	args := []any{window.From, window.To}
	filter, filterArgs := e.scopeFilter(len(args) + 1)
	if filter != "" {
		query += " AND " + filter
		args = append(args, filterArgs...)
	}
	args = append(args, limit)
	query += fmt.Sprintf(`
		GROUP BY customer_id
		ORDER BY total_spend DESC, customer_id ASC
		LIMIT $%d
	`, len(args))

	rows := make([]TopCustomer, 0)
	if err := e.db.SelectContext(ctx, &rows, query, args...); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to compute top customers")
		return nil, models.NewRunError(models.IssueBackendUnavailable, err)
	}
	return rows, nil
}
