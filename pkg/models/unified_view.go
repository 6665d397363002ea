package models

// ResolvedOrder is an order whose customer reference resolved during
// reconciliation. Total already reflects the authoritative item-derived sum
// and Region the owning customer's region at reconciliation time.
type ResolvedOrder struct {
	Order    Order
	Customer Customer
	Items    []OrderItem
}

// UnifiedView is the ephemeral joined dataset for one run. It is rebuilt from
// source on every run and never persisted. Every order in it has a resolvable
// customer; orphans live in the run report instead.
type UnifiedView struct {
	Customers map[string]Customer
	Orders    []ResolvedOrder
}

// OrderCount returns the number of resolved orders in the view.
func (v *UnifiedView) OrderCount() int {
	if v == nil {
		return 0
	}
	return len(v.Orders)
}

// OrderIDs returns the business keys of the resolved orders in view order.
func (v *UnifiedView) OrderIDs() []string {
	if v == nil {
		return nil
	}
	ids := make([]string, 0, len(v.Orders))
	for _, o := range v.Orders {
		ids = append(ids, o.Order.OrderID)
	}
	return ids
}
