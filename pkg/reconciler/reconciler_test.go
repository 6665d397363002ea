package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/money"
)

func testReconciler() *Reconciler {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return New(-1, logger)
}

func customerFixture(id, region string) models.Customer {
	return models.Customer{
		CustomerID:   id,
		Name:         "Customer " + id,
		Phone:        "9876543210",
		Region:       region,
		RegisteredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func orderFixture(orderID, customerID string, rowIndex int, feedMinor, itemMinor int64) models.OrderWithItems {
	return models.OrderWithItems{
		Order: models.Order{
			OrderID:    orderID,
			CustomerID: customerID,
			OrderedAt:  time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC),
			FeedTotal:  money.FromMinor(feedMinor),
			RowIndex:   rowIndex,
		},
		Items: []models.OrderItem{
			{OrderID: orderID, SKU: "SKU-1", Quantity: 1, UnitPrice: money.FromMinor(itemMinor), LineTotal: money.FromMinor(itemMinor)},
		},
	}
}

func TestReconcile_Join(t *testing.T) {
	r := testReconciler()

	t.Run("resolved order carries customer region and item sum", func(t *testing.T) {
		result := r.Reconcile(context.Background(),
			[]models.Customer{customerFixture("C001", "SOUTH")},
			[]models.OrderWithItems{orderFixture("O100", "C001", 0, 5100, 5100)},
		)
		require.Len(t, result.View.Orders, 1)
		assert.Empty(t, result.Warnings)

		o := result.View.Orders[0]
		assert.Equal(t, "SOUTH", o.Order.Region)
		assert.Equal(t, money.FromMinor(5100), o.Order.Total)
		assert.Equal(t, "C001", o.Customer.CustomerID)
	})

	t.Run("orphan order is excluded and reported", func(t *testing.T) {
		result := r.Reconcile(context.Background(),
			[]models.Customer{customerFixture("C001", "SOUTH")},
			[]models.OrderWithItems{orderFixture("O100", "C999", 0, 5100, 5100)},
		)
		assert.Empty(t, result.View.Orders)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, models.IssueOrphanedOrder, result.Warnings[0].Code)
		assert.Equal(t, "O100", result.Warnings[0].OrderID)
	})

	t.Run("later roster row wins", func(t *testing.T) {
		result := r.Reconcile(context.Background(),
			[]models.Customer{customerFixture("C001", "SOUTH"), customerFixture("C001", "NORTH")},
			nil,
		)
		assert.Equal(t, "NORTH", result.View.Customers["C001"].Region)
	})
}

func TestReconcile_Duplicates(t *testing.T) {
	r := testReconciler()

	t.Run("highest row index wins", func(t *testing.T) {
		early := orderFixture("O100", "C001", 0, 5100, 5100)
		late := orderFixture("O100", "C001", 3, 6100, 6100)
		result := r.Reconcile(context.Background(),
			[]models.Customer{customerFixture("C001", "SOUTH")},
			[]models.OrderWithItems{early, late},
		)
		require.Len(t, result.View.Orders, 1)
		assert.Equal(t, money.FromMinor(6100), result.View.Orders[0].Order.Total)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, models.IssueDuplicateRow, result.Warnings[0].Code)
	})

	t.Run("same order id for different customers keeps one owner", func(t *testing.T) {
		// The order key is unique across the feed, so the later row claims
		// the order outright; anything else would let the view hold two
		// orders where the orders table can only hold one.
		result := r.Reconcile(context.Background(),
			[]models.Customer{customerFixture("C001", "SOUTH"), customerFixture("C002", "NORTH")},
			[]models.OrderWithItems{
				orderFixture("O100", "C001", 0, 5100, 5100),
				orderFixture("O100", "C002", 1, 5100, 5100),
			},
		)
		require.Len(t, result.View.Orders, 1)
		assert.Equal(t, "C002", result.View.Orders[0].Order.CustomerID)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, models.IssueDuplicateRow, result.Warnings[0].Code)
		assert.Equal(t, "C001", result.Warnings[0].CustomerID)
		assert.Contains(t, result.Warnings[0].Detail, "conflicting customer")
	})

	t.Run("winner order preserves feed order", func(t *testing.T) {
		result := r.Reconcile(context.Background(),
			[]models.Customer{customerFixture("C001", "SOUTH")},
			[]models.OrderWithItems{
				orderFixture("O200", "C001", 0, 100, 100),
				orderFixture("O100", "C001", 1, 100, 100),
			},
		)
		require.Len(t, result.View.Orders, 2)
		assert.Equal(t, "O200", result.View.Orders[0].Order.OrderID)
		assert.Equal(t, "O100", result.View.Orders[1].Order.OrderID)
	})
}

func TestReconcile_AmountMismatch(t *testing.T) {
	r := testReconciler()
	customers := []models.Customer{customerFixture("C001", "SOUTH")}

	t.Run("gap within tolerance passes silently", func(t *testing.T) {
		result := r.Reconcile(context.Background(), customers,
			[]models.OrderWithItems{orderFixture("O100", "C001", 0, 5101, 5100)})
		require.Len(t, result.View.Orders, 1)
		assert.Empty(t, result.Warnings)
	})

	t.Run("gap beyond tolerance warns but keeps the order", func(t *testing.T) {
		result := r.Reconcile(context.Background(), customers,
			[]models.OrderWithItems{orderFixture("O100", "C001", 0, 5200, 5100)})
		require.Len(t, result.View.Orders, 1)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, models.IssueAmountMismatch, result.Warnings[0].Code)
		// The item-derived sum is what downstream sees.
		assert.Equal(t, money.FromMinor(5100), result.View.Orders[0].Order.Total)
	})

	t.Run("custom tolerance", func(t *testing.T) {
		logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
		wide := New(200, logger)
		result := wide.Reconcile(context.Background(), customers,
			[]models.OrderWithItems{orderFixture("O100", "C001", 0, 5200, 5100)})
		assert.Empty(t, result.Warnings)
	})
}
