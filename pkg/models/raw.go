package models

// Raw rows are the shapes an upstream extract stage hands the core. All fields
// are strings; validation and conversion happen at the normalizer boundary and
// nowhere else.

// RawCustomerRow is one record of the daily customer roster.
type RawCustomerRow struct {
	CustomerID        string `json:"customer_id" validate:"required"`
	Name              string `json:"name" validate:"required"`
	Phone             string `json:"phone" validate:"required"`
	Region            string `json:"region"`
	RegisteredAtLocal string `json:"registered_at_local" validate:"required"`
}

// RawOrderItemRow is one nested line item of a raw order.
type RawOrderItemRow struct {
	SKU       string `json:"sku" validate:"required"`
	Quantity  string `json:"quantity" validate:"required"`
	UnitPrice string `json:"unit_price" validate:"required"`
}

// RawOrderRow is one record of the daily order feed with its nested items.
type RawOrderRow struct {
	OrderID        string            `json:"order_id" validate:"required"`
	CustomerID     string            `json:"customer_id" validate:"required"`
	OrderedAtLocal string            `json:"ordered_at_local" validate:"required"`
	TotalAmount    string            `json:"total_amount" validate:"required"`
	Items          []RawOrderItemRow `json:"items" validate:"required,min=1,dive"`
}
