// Package reconciler joins normalized customers, orders, and line items into
// the Unified View for a run. Referential mismatches never crash the run:
// orphans and duplicates are excluded deterministically and reported.
package reconciler

import (
	"context"
	"fmt"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// DefaultToleranceMinor is the default allowed gap, in minor currency units,
// between an order's stated total and the sum of its line totals.
const DefaultToleranceMinor = 1

// Reconciler builds the Unified View from normalizer output.
type Reconciler struct {
	toleranceMinor int64
	logger         ectologger.Logger
}

// Result is the reconciled view plus the data-quality findings of the join.
type Result struct {
	View     *models.UnifiedView
	Warnings []models.QualityWarning
}

// New creates a reconciler. toleranceMinor below zero selects the default.
func New(toleranceMinor int64, logger ectologger.Logger) *Reconciler {
	if toleranceMinor < 0 {
		toleranceMinor = DefaultToleranceMinor
	}
	return &Reconciler{toleranceMinor: toleranceMinor, logger: logger}
}

// Reconcile joins orders to customers by business key, deduplicates repeated
// order keys (highest raw row index wins), cross-checks order totals against
// item sums, and denormalizes the owning customer's region onto each order.
func (r *Reconciler) Reconcile(ctx context.Context, customers []models.Customer, orders []models.OrderWithItems) *Result {
	ctx, span := tracing.StartSpan(ctx, "reconciler.Reconcile")
	defer span.End()

	result := &Result{View: &models.UnifiedView{Customers: make(map[string]models.Customer, len(customers))}}

	// Later roster rows overwrite earlier ones, matching upsert semantics.
	for _, c := range customers {
		result.View.Customers[c.CustomerID] = c
	}

	deduped := r.dedupe(orders, result)

	for _, o := range deduped {
		customer, ok := result.View.Customers[o.Order.CustomerID]
		if !ok {
			result.Warnings = append(result.Warnings, models.QualityWarning{
				Code:       models.IssueOrphanedOrder,
				OrderID:    o.Order.OrderID,
				CustomerID: o.Order.CustomerID,
				Detail:     "order references a customer absent from the roster",
			})
			continue
		}

		// The item-derived sum is authoritative for all downstream computation.
		itemSum := o.ItemSum()
		if o.Order.FeedTotal.AbsDiff(itemSum) > r.toleranceMinor {
			result.Warnings = append(result.Warnings, models.QualityWarning{
				Code:       models.IssueAmountMismatch,
				OrderID:    o.Order.OrderID,
				CustomerID: o.Order.CustomerID,
				Detail: fmt.Sprintf("stated total %s disagrees with item sum %s beyond tolerance of %d minor unit(s)",
					o.Order.FeedTotal, itemSum, r.toleranceMinor),
			})
		}

		order := o.Order
		order.Total = itemSum
		order.Region = customer.Region
		result.View.Orders = append(result.View.Orders, models.ResolvedOrder{
			Order:    order,
			Customer: customer,
			Items:    o.Items,
		})
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"customers": len(result.View.Customers),
		"resolved":  len(result.View.Orders),
		"warnings":  len(result.Warnings),
	}).Info("Reconciled unified view")

	return result
}

// dedupe keeps one occurrence per order business key, which is unique across
// the whole feed regardless of the customer named on the row. The highest raw
// row index wins; discards are reported. Output preserves feed order of the
// winners.
func (r *Reconciler) dedupe(orders []models.OrderWithItems, result *Result) []models.OrderWithItems {
	type slot struct {
		order models.OrderWithItems
		seen  int
	}
	winners := make(map[string]*slot, len(orders))
	keys := make([]string, 0, len(orders))

	for _, o := range orders {
		key := o.Order.OrderID
		existing, ok := winners[key]
		if !ok {
			winners[key] = &slot{order: o, seen: 1}
			keys = append(keys, key)
			continue
		}
		existing.seen++
		discarded := existing.order.Order
		if o.Order.RowIndex > existing.order.Order.RowIndex {
			existing.order = o
		} else {
			discarded = o.Order
		}
		detail := fmt.Sprintf("duplicate order row at index %d discarded, highest row index wins", discarded.RowIndex)
		if discarded.CustomerID != existing.order.Order.CustomerID {
			detail += fmt.Sprintf(", conflicting customer %q lost to %q", discarded.CustomerID, existing.order.Order.CustomerID)
		}
		result.Warnings = append(result.Warnings, models.QualityWarning{
			Code:       models.IssueDuplicateRow,
			OrderID:    discarded.OrderID,
			CustomerID: discarded.CustomerID,
			Detail:     detail,
		})
	}

	deduped := make([]models.OrderWithItems, 0, len(winners))
	for _, key := range keys {
		deduped = append(deduped, winners[key].order)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Order.RowIndex < deduped[j].Order.RowIndex
	})
	return deduped
}
