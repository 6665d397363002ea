// Package extract reads the daily source files into raw rows. The readers do
// no validation beyond file structure; every field stays a string so the
// normalizer remains the single conversion boundary.
package extract

import (
	"encoding/csv"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/Ramsey-B/fern/pkg/models"
)

// customerHeader is the expected roster column order.
var customerHeader = []string{"customer_id", "name", "phone", "region", "registered_at"}

// ReadCustomersCSV parses the customer roster. The first record is treated as
// a header when it matches the expected columns; otherwise it is data.
func ReadCustomersCSV(r io.Reader) ([]models.RawCustomerRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(customerHeader)
	reader.TrimLeadingSpace = true

	rows := make([]models.RawCustomerRow, 0)
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read customer roster")
		}
		if first {
			first = false
			if isCustomerHeader(record) {
				continue
			}
		}
		rows = append(rows, models.RawCustomerRow{
			CustomerID:        record[0],
			Name:              record[1],
			Phone:             record[2],
			Region:            record[3],
			RegisteredAtLocal: record[4],
		})
	}
	return rows, nil
}

func isCustomerHeader(record []string) bool {
	for i, want := range customerHeader {
		if !strings.EqualFold(strings.TrimSpace(record[i]), want) {
			return false
		}
	}
	return true
}

// ReadCustomersFile reads the roster from disk.
func ReadCustomersFile(path string) ([]models.RawCustomerRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open customer roster %s", path)
	}
	defer f.Close()
	return ReadCustomersCSV(f)
}

type xmlItem struct {
	SKU       string `xml:"sku"`
	Quantity  string `xml:"quantity"`
	UnitPrice string `xml:"unit_price"`
}

type xmlOrder struct {
	OrderID     string    `xml:"order_id"`
	CustomerID  string    `xml:"customer_id"`
	OrderedAt   string    `xml:"ordered_at"`
	TotalAmount string    `xml:"total_amount"`
	Items       []xmlItem `xml:"items>item"`
}

type xmlFeed struct {
	XMLName xml.Name   `xml:"orders"`
	Orders  []xmlOrder `xml:"order"`
}

// ReadOrdersXML parses the order feed with its nested line items.
func ReadOrdersXML(r io.Reader) ([]models.RawOrderRow, error) {
	var feed xmlFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, errors.Wrap(err, "failed to decode order feed")
	}

	rows := make([]models.RawOrderRow, 0, len(feed.Orders))
	for _, o := range feed.Orders {
		row := models.RawOrderRow{
			OrderID:        o.OrderID,
			CustomerID:     o.CustomerID,
			OrderedAtLocal: o.OrderedAt,
			TotalAmount:    o.TotalAmount,
		}
		for _, it := range o.Items {
			row.Items = append(row.Items, models.RawOrderItemRow{
				SKU:       it.SKU,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadOrdersFile reads the order feed from disk.
func ReadOrdersFile(path string) ([]models.RawOrderRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open order feed %s", path)
	}
	defer f.Close()
	return ReadOrdersXML(f)
}
