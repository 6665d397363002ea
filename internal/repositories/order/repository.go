package order

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var orderColumns = []string{"order_id", "customer_id", "ordered_at_utc", "total_minor", "region", "created_at", "updated_at"}
var itemColumns = []string{"order_id", "sku", "quantity", "unit_price_minor", "line_total_minor"}

type statements interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repository handles order and order item persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new order repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) stmts(ctx context.Context) statements {
	if tx, ok := database.TxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Upsert creates or updates an order keyed by order_id. Absent orders are never
// deleted; re-running the same feed converges on the same rows.
func (r *Repository) Upsert(ctx context.Context, o models.Order) error {
	ctx, span := tracing.StartSpan(ctx, "order.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()

	ib := database.NewInsertBuilder()
	ib.InsertInto("orders")
	ib.Cols(orderColumns...)
	ib.Values(o.OrderID, o.CustomerID, o.OrderedAt, o.Total, o.Region, now, now)
	ub := ib.OnConflict("order_id")
	ub.Set(
		ub.Assign("customer_id", database.Excluded("customer_id")),
		ub.Assign("ordered_at_utc", database.Excluded("ordered_at_utc")),
		ub.Assign("total_minor", database.Excluded("total_minor")),
		ub.Assign("region", database.Excluded("region")),
		ub.Assign("updated_at", now),
	)

	query, args := ib.Build()
	if _, err := r.stmts(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"order_id": o.OrderID, "customer_id": o.CustomerID}).Error("Failed to upsert order")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert order")
	}
	return nil
}

// ReplaceItems swaps an order's line items for the given set. Items have no
// identity of their own, so delete-and-insert keeps the set exactly in step
// with the feed.
func (r *Repository) ReplaceItems(ctx context.Context, orderID string, items []models.OrderItem) error {
	ctx, span := tracing.StartSpan(ctx, "order.Repository.ReplaceItems")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom("order_items")
	db.Where(db.Equal("order_id", orderID))

	query, args := db.Build()
	if _, err := r.stmts(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"order_id": orderID}).Error("Failed to delete order items")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace order items")
	}

	if len(items) == 0 {
		return nil
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("order_items")
	ib.Cols(itemColumns...)
	for _, it := range items {
		ib.Values(orderID, it.SKU, it.Quantity, it.UnitPrice, it.LineTotal)
	}

	query, args = ib.Build()
	if _, err := r.stmts(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"order_id": orderID, "item_count": len(items)}).Error("Failed to insert order items")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace order items")
	}
	return nil
}

// Get retrieves an order and its line items by business id
func (r *Repository) Get(ctx context.Context, orderID string) (*models.OrderWithItems, error) {
	ctx, span := tracing.StartSpan(ctx, "order.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(orderColumns...)
	sb.From("orders")
	sb.Where(sb.Equal("order_id", orderID))

	query, args := sb.Build()
	var o models.Order
	if err := r.stmts(ctx).GetContext(ctx, &o, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "order %s not found", orderID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"order_id": orderID}).Error("Failed to get order")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get order")
	}

	items, err := r.GetItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &models.OrderWithItems{Order: o, Items: items}, nil
}

// GetItems retrieves an order's line items in insertion order
func (r *Repository) GetItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	ctx, span := tracing.StartSpan(ctx, "order.Repository.GetItems")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(itemColumns...)
	sb.From("order_items")
	sb.Where(sb.Equal("order_id", orderID))
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var items []models.OrderItem
	if err := r.stmts(ctx).SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"order_id": orderID}).Error("Failed to get order items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get order items")
	}
	return items, nil
}

// Count returns the number of persisted orders
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "order.Repository.Count")
	defer span.End()

	var count int
	if err := r.stmts(ctx).GetContext(ctx, &count, "SELECT COUNT(*) FROM orders"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count orders")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count orders")
	}
	return count, nil
}
