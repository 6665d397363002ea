package customer

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

var columns = []string{"customer_id", "name", "phone", "region", "registered_at_utc", "created_at", "updated_at"}

// statements is the statement surface shared by the pooled connection and an
// in-flight transaction.
type statements interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repository handles customer persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new customer repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// stmts routes statements through the transaction carried by ctx, if any, so a
// load shares one transaction across repositories.
func (r *Repository) stmts(ctx context.Context) statements {
	if tx, ok := database.TxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Upsert creates or updates a customer keyed by customer_id. Re-running the
// same roster leaves the row unchanged apart from updated_at.
func (r *Repository) Upsert(ctx context.Context, c models.Customer) error {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()

	ib := database.NewInsertBuilder()
	ib.InsertInto("customers")
	ib.Cols(columns...)
	ib.Values(c.CustomerID, c.Name, c.Phone, c.Region, c.RegisteredAt, now, now)
	ub := ib.OnConflict("customer_id")
	ub.Set(
		ub.Assign("name", database.Excluded("name")),
		ub.Assign("phone", database.Excluded("phone")),
		ub.Assign("region", database.Excluded("region")),
		ub.Assign("registered_at_utc", database.Excluded("registered_at_utc")),
		ub.Assign("updated_at", now),
	)

	query, args := ib.Build()
	if _, err := r.stmts(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"customer_id": c.CustomerID}).Error("Failed to upsert customer")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert customer")
	}
	return nil
}

// Get retrieves a customer by its business id
func (r *Repository) Get(ctx context.Context, customerID string) (*models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("customers")
	sb.Where(sb.Equal("customer_id", customerID))

	query, args := sb.Build()
	var c models.Customer
	if err := r.stmts(ctx).GetContext(ctx, &c, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "customer %s not found", customerID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"customer_id": customerID}).Error("Failed to get customer")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get customer")
	}
	return &c, nil
}

// List retrieves customers ordered by business id
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("customers")
	sb.OrderBy("customer_id ASC")
	sb.Limit(limit).Offset(offset)

	query, args := sb.Build()
	var customers []models.Customer
	if err := r.stmts(ctx).SelectContext(ctx, &customers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list customers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customers")
	}
	return customers, nil
}

// Count returns the number of persisted customers
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.Count")
	defer span.End()

	var count int
	if err := r.stmts(ctx).GetContext(ctx, &count, "SELECT COUNT(*) FROM customers"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count customers")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count customers")
	}
	return count, nil
}
