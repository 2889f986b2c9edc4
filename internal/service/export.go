package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/pkg/common"
	"github.com/gocarina/gocsv"
)

// Export formats
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

// OrderExportRow is one line of the admin order export
type OrderExportRow struct {
	OrderID   string `csv:"OrderID"`
	Customer  string `csv:"Customer"`
	Total     string `csv:"Total"`
	Status    string `csv:"Status"`
	CreatedAt string `csv:"Created At"`
}

var exportHeader = []string{"OrderID", "Customer", "Total", "Status", "Created At"}

// ExportRows converts orders to export rows
func ExportRows(orders []*domain.Order) []*OrderExportRow {
	rows := make([]*OrderExportRow, 0, len(orders))
	for _, o := range orders {
		customer := "Unknown"
		if o.User != nil {
			customer = o.User.Name
			if common.IsEmptyOrNA(customer) {
				customer = o.User.Email
			}
		}
		rows = append(rows, &OrderExportRow{
			OrderID:   fmt.Sprintf("%d", o.ID),
			Customer:  customer,
			Total:     fmt.Sprintf("%.2f", o.Total),
			Status:    o.Status,
			CreatedAt: o.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

// ExportOrders writes the filtered orders to w as CSV or XLSX
func (s *OrderService) ExportOrders(ctx context.Context, filter repository.OrderFilter, format string, w io.Writer) error {
	if err := validateFilter(filter); err != nil {
		return err
	}
	orders, err := s.store.Orders.ListAll(ctx, filter)
	if err != nil {
		return apperr.Internal(err, "Failed to query orders")
	}
	rows := ExportRows(orders)

	switch format {
	case "", ExportCSV:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, strings.Join(exportHeader, ","))
			return err
		}
		return gocsv.Marshal(rows, w)
	case ExportXLSX:
		return writeXLSX(rows, w)
	default:
		return apperr.Validation("Unsupported export format %q", format)
	}
}

func writeXLSX(rows []*OrderExportRow, w io.Writer) error {
	const sheet = "Sheet1"
	columns := []string{"A", "B", "C", "D", "E"}

	f := excelize.NewFile()
	for i, h := range exportHeader {
		f.SetCellValue(sheet, columns[i]+"1", h)
	}
	for r, row := range rows {
		line := r + 2
		values := []string{row.OrderID, row.Customer, row.Total, row.Status, row.CreatedAt}
		for i, v := range values {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", columns[i], line), v)
		}
	}
	return f.Write(w)
}
