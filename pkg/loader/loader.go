// Package loader persists a run's Unified View into the relational backend.
// The whole load is one transaction: it either commits every reconciled
// customer, order, and item, or leaves the previous state untouched.
package loader

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// CustomerWriter is the customer persistence surface the loader needs.
type CustomerWriter interface {
	Upsert(ctx context.Context, c models.Customer) error
}

// OrderWriter is the order persistence surface the loader needs.
type OrderWriter interface {
	Upsert(ctx context.Context, o models.Order) error
	ReplaceItems(ctx context.Context, orderID string, items []models.OrderItem) error
}

// Loader writes Unified Views to PostgreSQL.
type Loader struct {
	db        database.DB
	customers CustomerWriter
	orders    OrderWriter
	logger    ectologger.Logger
}

// New creates a loader over the given repositories.
func New(db database.DB, customers CustomerWriter, orders OrderWriter, logger ectologger.Logger) *Loader {
	return &Loader{
		db:        db,
		customers: customers,
		orders:    orders,
		logger:    logger,
	}
}

// Load upserts the view's customers, orders, and items in a single
// transaction. Rows are keyed by business id, so replaying the same view
// converges on identical table contents; rows absent from the view are never
// deleted. Any failure rolls everything back and aborts the run.
func (l *Loader) Load(ctx context.Context, view *models.UnifiedView) error {
	ctx, span := tracing.StartSpan(ctx, "loader.Loader.Load")
	defer span.End()

	if l.db == nil {
		return models.NewRunError(models.IssueBackendUnavailable, nil)
	}
	if view == nil || (len(view.Customers) == 0 && len(view.Orders) == 0) {
		l.logger.WithContext(ctx).Info("Unified view is empty, nothing to load")
		return nil
	}

	txCtx, tx, err := l.db.GetTx(ctx, nil)
	if err != nil {
		return models.NewRunError(models.IssueLoadTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	// Customers first so order rows can reference them.
	for _, c := range view.Customers {
		if err := l.customers.Upsert(txCtx, c); err != nil {
			return models.NewRunError(models.IssueLoadTransactionFailed, err)
		}
	}

	for _, resolved := range view.Orders {
		if err := l.orders.Upsert(txCtx, resolved.Order); err != nil {
			return models.NewRunError(models.IssueLoadTransactionFailed, err)
		}
		if err := l.orders.ReplaceItems(txCtx, resolved.Order.OrderID, resolved.Items); err != nil {
			return models.NewRunError(models.IssueLoadTransactionFailed, err)
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return models.NewRunError(models.IssueLoadTransactionFailed, err)
	}

	l.logger.WithContext(ctx).WithFields(map[string]any{
		"customers": len(view.Customers),
		"orders":    len(view.Orders),
	}).Info("Loaded unified view")
	return nil
}
