package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCustomersCSV(t *testing.T) {
	t.Run("with header row", func(t *testing.T) {
		input := `customer_id,name,phone,region,registered_at
C001,Asha Rao,+91-98765-43210,South,2024-03-15 09:00:00
C002,Vikram Iyer,9123456780,North,2024-02-01 11:30:00
`
		rows, err := ReadCustomersCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "C001", rows[0].CustomerID)
		assert.Equal(t, "Asha Rao", rows[0].Name)
		assert.Equal(t, "+91-98765-43210", rows[0].Phone)
		assert.Equal(t, "South", rows[0].Region)
		assert.Equal(t, "2024-03-15 09:00:00", rows[0].RegisteredAtLocal)
	})

	t.Run("without header row", func(t *testing.T) {
		input := "C001,Asha Rao,9876543210,South,2024-03-15 09:00:00\n"
		rows, err := ReadCustomersCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "C001", rows[0].CustomerID)
	})

	t.Run("empty input", func(t *testing.T) {
		rows, err := ReadCustomersCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("wrong column count", func(t *testing.T) {
		_, err := ReadCustomersCSV(strings.NewReader("C001,only-two\n"))
		assert.Error(t, err)
	})

	t.Run("fields stay raw strings", func(t *testing.T) {
		input := "C001, Asha Rao ,not-a-phone,,garbage-date\n"
		rows, err := ReadCustomersCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "not-a-phone", rows[0].Phone)
		assert.Equal(t, "garbage-date", rows[0].RegisteredAtLocal)
	})
}

func TestReadOrdersXML(t *testing.T) {
	t.Run("orders with nested items", func(t *testing.T) {
		input := `<?xml version="1.0"?>
<orders>
  <order>
    <order_id>O100</order_id>
    <customer_id>C001</customer_id>
    <ordered_at>2024-03-20 14:30:00</ordered_at>
    <total_amount>51.00</total_amount>
    <items>
      <item><sku>SKU-1</sku><quantity>2</quantity><unit_price>25.50</unit_price></item>
      <item><sku>SKU-2</sku><quantity>1</quantity><unit_price>0.00</unit_price></item>
    </items>
  </order>
  <order>
    <order_id>O101</order_id>
    <customer_id>C002</customer_id>
    <ordered_at>2024-03-21 10:00:00</ordered_at>
    <total_amount>10.00</total_amount>
    <items>
      <item><sku>SKU-3</sku><quantity>1</quantity><unit_price>10.00</unit_price></item>
    </items>
  </order>
</orders>`
		rows, err := ReadOrdersXML(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "O100", rows[0].OrderID)
		assert.Equal(t, "C001", rows[0].CustomerID)
		assert.Equal(t, "2024-03-20 14:30:00", rows[0].OrderedAtLocal)
		assert.Equal(t, "51.00", rows[0].TotalAmount)
		require.Len(t, rows[0].Items, 2)
		assert.Equal(t, "SKU-1", rows[0].Items[0].SKU)
		assert.Equal(t, "2", rows[0].Items[0].Quantity)
		assert.Equal(t, "25.50", rows[0].Items[0].UnitPrice)

		require.Len(t, rows[1].Items, 1)
	})

	t.Run("order with no items", func(t *testing.T) {
		input := `<orders><order><order_id>O1</order_id><customer_id>C1</customer_id><ordered_at>2024-01-01</ordered_at><total_amount>0</total_amount><items/></order></orders>`
		rows, err := ReadOrdersXML(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Empty(t, rows[0].Items)
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := ReadOrdersXML(strings.NewReader("<orders><order>"))
		assert.Error(t, err)
	})
}
