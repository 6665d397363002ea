// Package normalizer maps raw extract rows to canonical entities. It is the
// only place raw shapes are inspected; everything downstream sees typed,
// validated records. Malformed rows are collected into a rejected-rows report
// instead of aborting the batch.
package normalizer

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/money"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/timezone"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	sourceCustomers = "customers"
	sourceOrders    = "orders"
)

// Normalizer converts raw customer and order rows into canonical entities.
type Normalizer struct {
	tz       *timezone.Converter
	validate *validator.Validate
	logger   ectologger.Logger
}

// Result holds the outcome of normalizing one run's extracts.
type Result struct {
	Customers []models.Customer
	Orders    []models.OrderWithItems
	Rejected  []models.RejectedRow
}

// New creates a normalizer bound to a source time zone.
func New(tz *timezone.Converter, logger ectologger.Logger) *Normalizer {
	v := validator.New()
	// Report source field names, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Normalizer{tz: tz, validate: v, logger: logger}
}

// Normalize processes both extracts. Row-level failures reject the row and
// continue; the batch never aborts here.
func (n *Normalizer) Normalize(ctx context.Context, customers []models.RawCustomerRow, orders []models.RawOrderRow) *Result {
	ctx, span := tracing.StartSpan(ctx, "normalizer.Normalize")
	defer span.End()

	result := &Result{}
	for i, row := range customers {
		customer, rejects := n.normalizeCustomer(i, row)
		if len(rejects) > 0 {
			result.Rejected = append(result.Rejected, rejects...)
			continue
		}
		result.Customers = append(result.Customers, *customer)
	}
	for i, row := range orders {
		order, rejects := n.normalizeOrder(i, row)
		if len(rejects) > 0 {
			result.Rejected = append(result.Rejected, rejects...)
			continue
		}
		result.Orders = append(result.Orders, *order)
	}

	n.logger.WithContext(ctx).WithFields(map[string]any{
		"customers_in":  len(customers),
		"orders_in":     len(orders),
		"customers_out": len(result.Customers),
		"orders_out":    len(result.Orders),
		"rejected":      len(result.Rejected),
	}).Info("Normalized run extracts")

	return result
}

func (n *Normalizer) normalizeCustomer(idx int, row models.RawCustomerRow) (*models.Customer, []models.RejectedRow) {
	if rejects := n.requiredFields(sourceCustomers, idx, row.CustomerID, row); len(rejects) > 0 {
		return nil, rejects
	}

	phone, ok := normalizers.CanonicalPhone(row.Phone)
	if !ok {
		return nil, []models.RejectedRow{reject(sourceCustomers, idx, row.CustomerID, "phone", models.IssueInvalidPhone,
			"fewer than 10 digits after stripping formatting")}
	}

	registeredAt, err := n.tz.ToUTC(row.RegisteredAtLocal)
	if err != nil {
		return nil, []models.RejectedRow{reject(sourceCustomers, idx, row.CustomerID, "registered_at_local", timestampCode(err), err.Error())}
	}

	return &models.Customer{
		CustomerID:   normalizers.Trim(row.CustomerID),
		Name:         normalizers.Apply(row.Name, "nname"),
		Phone:        phone,
		Region:       normalizers.Apply(row.Region, "nregion"),
		RegisteredAt: registeredAt,
	}, nil
}

func (n *Normalizer) normalizeOrder(idx int, row models.RawOrderRow) (*models.OrderWithItems, []models.RejectedRow) {
	if rejects := n.requiredFields(sourceOrders, idx, row.OrderID, row); len(rejects) > 0 {
		return nil, rejects
	}

	orderedAt, err := n.tz.ToUTC(row.OrderedAtLocal)
	if err != nil {
		return nil, []models.RejectedRow{reject(sourceOrders, idx, row.OrderID, "ordered_at_local", timestampCode(err), err.Error())}
	}

	feedTotal, err := money.Parse(row.TotalAmount)
	if err != nil {
		return nil, []models.RejectedRow{reject(sourceOrders, idx, row.OrderID, "total_amount", models.IssueInvalidAmount, err.Error())}
	}

	orderID := normalizers.Trim(row.OrderID)
	items := make([]models.OrderItem, 0, len(row.Items))
	for _, raw := range row.Items {
		qty, err := strconv.Atoi(normalizers.Trim(raw.Quantity))
		if err != nil || qty <= 0 {
			return nil, []models.RejectedRow{reject(sourceOrders, idx, orderID, "quantity", models.IssueInvalidQuantity,
				"quantity must be a positive integer, got "+strconv.Quote(raw.Quantity))}
		}
		unitPrice, err := money.Parse(raw.UnitPrice)
		if err != nil {
			return nil, []models.RejectedRow{reject(sourceOrders, idx, orderID, "unit_price", models.IssueInvalidAmount, err.Error())}
		}
		items = append(items, models.OrderItem{
			OrderID:   orderID,
			SKU:       normalizers.Trim(raw.SKU),
			Quantity:  qty,
			UnitPrice: unitPrice,
			LineTotal: unitPrice.MulQuantity(qty), // recomputed, never trusted from input
		})
	}

	return &models.OrderWithItems{
		Order: models.Order{
			OrderID:    orderID,
			CustomerID: normalizers.Trim(row.CustomerID),
			OrderedAt:  orderedAt,
			FeedTotal:  feedTotal,
			RowIndex:   idx,
		},
		Items: items,
	}, nil
}

// requiredFields runs struct-tag validation and converts each failure into a
// MissingField rejection naming the offending source field.
func (n *Normalizer) requiredFields(source string, idx int, key string, row any) []models.RejectedRow {
	err := n.validate.Struct(row)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.RejectedRow{reject(source, idx, key, "", models.IssueMissingField, err.Error())}
	}
	rejects := make([]models.RejectedRow, 0, len(verrs))
	for _, fe := range verrs {
		rejects = append(rejects, reject(source, idx, key, fe.Field(), models.IssueMissingField,
			"required field is missing or empty"))
	}
	return rejects
}

func timestampCode(err error) models.IssueCode {
	if errors.Is(err, timezone.ErrUnknownZone) {
		return models.IssueUnknownZone
	}
	return models.IssueInvalidTimestamp
}

func reject(source string, idx int, key, field string, code models.IssueCode, reason string) models.RejectedRow {
	return models.RejectedRow{
		Source:   source,
		RowIndex: idx,
		Key:      strings.TrimSpace(key),
		Field:    field,
		Code:     code,
		Reason:   reason,
	}
}
