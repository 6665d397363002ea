package models

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/money"
)

// Order is the canonical order entity. OrderedAt is always UTC; the source
// local timestamp is converted exactly once at normalization time. Total is
// the item-derived sum once reconciliation has run (the feed's own total is
// only used for the cross-check).
type Order struct {
	OrderID    string       `db:"order_id" json:"order_id"`
	CustomerID string       `db:"customer_id" json:"customer_id"`
	OrderedAt  time.Time    `db:"ordered_at_utc" json:"ordered_at_utc"`
	Total      money.Amount `db:"total_minor" json:"total"`
	Region     string       `db:"region" json:"region"` // denormalized from the owning customer
	CreatedAt  time.Time    `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at,omitempty"`

	// RowIndex is the position of the source row within the feed. It is not
	// persisted; the reconciler uses it to break duplicate-key ties.
	RowIndex int `db:"-" json:"-"`

	// FeedTotal is the total as stated by the order feed, kept for the
	// amount-mismatch cross-check. Not persisted.
	FeedTotal money.Amount `db:"-" json:"-"`
}

// OrderItem is a line item exclusively owned by one order. LineTotal is always
// recomputed as Quantity x UnitPrice.
type OrderItem struct {
	OrderID   string       `db:"order_id" json:"order_id"`
	SKU       string       `db:"sku" json:"sku"`
	Quantity  int          `db:"quantity" json:"quantity"`
	UnitPrice money.Amount `db:"unit_price_minor" json:"unit_price"`
	LineTotal money.Amount `db:"line_total_minor" json:"line_total"`
}

// OrderWithItems pairs an order with its line items as produced by the
// normalizer.
type OrderWithItems struct {
	Order Order
	Items []OrderItem
}

// ItemSum returns the sum of the line totals.
func (o OrderWithItems) ItemSum() money.Amount {
	var sum money.Amount
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal)
	}
	return sum
}
