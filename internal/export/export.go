package export

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/talkincode/storepro/internal/domain"
)

const DateLayout = "2006-01-02 15:04:05"

// InvoiceRow is one exported purchase
type InvoiceRow struct {
	ID           int64           `csv:"ID"`
	CustomerName string          `csv:"Customer"`
	TotalPrice   decimal.Decimal `csv:"Total"`
	Discount     decimal.Decimal `csv:"Discount"`
	FinalAmount  decimal.Decimal `csv:"Final"`
	Date         string          `csv:"Date"`
}

var invoiceHeader = []string{"ID", "Customer", "Total", "Discount", "Final", "Date"}

func toRows(purchases []*domain.Purchase) []*InvoiceRow {
	rows := make([]*InvoiceRow, 0, len(purchases))
	for _, p := range purchases {
		rows = append(rows, &InvoiceRow{
			ID:           p.ID,
			CustomerName: p.CustomerName,
			TotalPrice:   p.TotalPrice,
			Discount:     p.Discount,
			FinalAmount:  p.FinalAmount,
			Date:         p.Date.Format(DateLayout),
		})
	}
	return rows
}

// WriteCSV writes a header row followed by one row per purchase.
func WriteCSV(w io.Writer, purchases []*domain.Purchase) error {
	rows := toRows(purchases)
	if len(rows) == 0 {
		// gocsv writes nothing for an empty slice, keep the header
		_, err := fmt.Fprintln(w, "ID,Customer,Total,Discount,Final,Date")
		return err
	}
	return errors.Wrap(gocsv.Marshal(rows, w), "write invoices csv")
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) ([]*InvoiceRow, error) {
	var rows []*InvoiceRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "read invoices csv")
	}
	return rows, nil
}

func cellName(col, row int) string {
	return fmt.Sprintf("%c%d", 'A'+col, row)
}

// WriteXLSX writes the same columns as WriteCSV plus a formatted final
// amount into a single sheet workbook.
func WriteXLSX(w io.Writer, purchases []*domain.Purchase) error {
	const sheet = "Sheet1"
	f := excelize.NewFile()

	header := append(append([]string{}, invoiceHeader...), "Final (formatted)")
	for i, h := range header {
		f.SetCellValue(sheet, cellName(i, 1), h)
	}
	for i, r := range toRows(purchases) {
		row := i + 2
		f.SetCellValue(sheet, cellName(0, row), r.ID)
		f.SetCellValue(sheet, cellName(1, row), r.CustomerName)
		f.SetCellValue(sheet, cellName(2, row), r.TotalPrice.InexactFloat64())
		f.SetCellValue(sheet, cellName(3, row), r.Discount.InexactFloat64())
		f.SetCellValue(sheet, cellName(4, row), r.FinalAmount.InexactFloat64())
		f.SetCellValue(sheet, cellName(5, row), r.Date)
		f.SetCellValue(sheet, cellName(6, row), domain.FormatMoney(r.FinalAmount, domain.SaleCurrency))
	}
	return errors.Wrap(f.Write(w), "write invoices xlsx")
}
