package normalizer

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/money"
	"github.com/Ramsey-B/fern/pkg/timezone"
)

func testNormalizer(t *testing.T) *Normalizer {
	tz, err := timezone.NewConverter("Asia/Kolkata")
	require.NoError(t, err)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return New(tz, logger)
}

func validCustomer() models.RawCustomerRow {
	return models.RawCustomerRow{
		CustomerID:        "C001",
		Name:              " Asha  Rao ",
		Phone:             "+91-98765-43210",
		Region:            " south ",
		RegisteredAtLocal: "2024-03-15 09:00:00",
	}
}

func validOrder() models.RawOrderRow {
	return models.RawOrderRow{
		OrderID:        "O100",
		CustomerID:     "C001",
		OrderedAtLocal: "2024-03-20 14:30:00",
		TotalAmount:    "51.00",
		Items: []models.RawOrderItemRow{
			{SKU: "SKU-1", Quantity: "2", UnitPrice: "25.50"},
		},
	}
}

func TestNormalize_Customers(t *testing.T) {
	n := testNormalizer(t)

	t.Run("valid row is canonicalized", func(t *testing.T) {
		result := n.Normalize(context.Background(), []models.RawCustomerRow{validCustomer()}, nil)
		require.Len(t, result.Customers, 1)
		assert.Empty(t, result.Rejected)

		c := result.Customers[0]
		assert.Equal(t, "C001", c.CustomerID)
		assert.Equal(t, "Asha Rao", c.Name)
		assert.Equal(t, "9876543210", c.Phone)
		assert.Equal(t, "SOUTH", c.Region)
		assert.Equal(t, time.Date(2024, 3, 15, 3, 30, 0, 0, time.UTC), c.RegisteredAt)
	})

	t.Run("missing required field rejects row", func(t *testing.T) {
		row := validCustomer()
		row.Name = ""
		result := n.Normalize(context.Background(), []models.RawCustomerRow{row}, nil)
		assert.Empty(t, result.Customers)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, models.IssueMissingField, result.Rejected[0].Code)
		assert.Equal(t, "name", result.Rejected[0].Field)
		assert.Equal(t, "customers", result.Rejected[0].Source)
	})

	t.Run("missing region is allowed", func(t *testing.T) {
		row := validCustomer()
		row.Region = ""
		result := n.Normalize(context.Background(), []models.RawCustomerRow{row}, nil)
		require.Len(t, result.Customers, 1)
		assert.Equal(t, "", result.Customers[0].Region)
	})

	t.Run("short phone rejects row", func(t *testing.T) {
		row := validCustomer()
		row.Phone = "12345"
		result := n.Normalize(context.Background(), []models.RawCustomerRow{row}, nil)
		assert.Empty(t, result.Customers)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, models.IssueInvalidPhone, result.Rejected[0].Code)
	})

	t.Run("bad timestamp rejects row", func(t *testing.T) {
		row := validCustomer()
		row.RegisteredAtLocal = "15/03/2024"
		result := n.Normalize(context.Background(), []models.RawCustomerRow{row}, nil)
		assert.Empty(t, result.Customers)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, models.IssueInvalidTimestamp, result.Rejected[0].Code)
	})

	t.Run("bad row does not sink the batch", func(t *testing.T) {
		bad := validCustomer()
		bad.Phone = "123"
		result := n.Normalize(context.Background(), []models.RawCustomerRow{bad, validCustomer()}, nil)
		assert.Len(t, result.Customers, 1)
		assert.Len(t, result.Rejected, 1)
	})
}

func TestNormalize_Orders(t *testing.T) {
	n := testNormalizer(t)

	t.Run("valid order with recomputed line totals", func(t *testing.T) {
		result := n.Normalize(context.Background(), nil, []models.RawOrderRow{validOrder()})
		require.Len(t, result.Orders, 1)
		assert.Empty(t, result.Rejected)

		o := result.Orders[0]
		assert.Equal(t, "O100", o.Order.OrderID)
		assert.Equal(t, "C001", o.Order.CustomerID)
		assert.Equal(t, time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC), o.Order.OrderedAt)
		assert.Equal(t, money.FromMinor(5100), o.Order.FeedTotal)
		require.Len(t, o.Items, 1)
		assert.Equal(t, money.FromMinor(5100), o.Items[0].LineTotal)
		assert.Equal(t, money.FromMinor(5100), o.ItemSum())
	})

	t.Run("row index follows feed order", func(t *testing.T) {
		first := validOrder()
		second := validOrder()
		second.OrderID = "O101"
		result := n.Normalize(context.Background(), nil, []models.RawOrderRow{first, second})
		require.Len(t, result.Orders, 2)
		assert.Equal(t, 0, result.Orders[0].Order.RowIndex)
		assert.Equal(t, 1, result.Orders[1].Order.RowIndex)
	})

	t.Run("empty items rejects row", func(t *testing.T) {
		row := validOrder()
		row.Items = nil
		result := n.Normalize(context.Background(), nil, []models.RawOrderRow{row})
		assert.Empty(t, result.Orders)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, models.IssueMissingField, result.Rejected[0].Code)
	})

	t.Run("invalid amount rejects row", func(t *testing.T) {
		row := validOrder()
		row.TotalAmount = "fifty"
		result := n.Normalize(context.Background(), nil, []models.RawOrderRow{row})
		assert.Empty(t, result.Orders)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, models.IssueInvalidAmount, result.Rejected[0].Code)
	})

	t.Run("negative unit price rejects row", func(t *testing.T) {
		row := validOrder()
		row.Items[0].UnitPrice = "-5.00"
		result := n.Normalize(context.Background(), nil, []models.RawOrderRow{row})
		assert.Empty(t, result.Orders)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, models.IssueInvalidAmount, result.Rejected[0].Code)
	})

	t.Run("non-positive quantity rejects row", func(t *testing.T) {
		row := validOrder()
		row.Items[0].Quantity = "0"
		result := n.Normalize(context.Background(), nil, []models.RawOrderRow{row})
		assert.Empty(t, result.Orders)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, models.IssueInvalidQuantity, result.Rejected[0].Code)
	})
}
