// Package export serializes extraction results to an XLSX workbook. Column
// names are part of the contract with downstream consumers of the emailed
// file and must stay in lockstep with the ExtractedInvoice fields.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tallyrelay/invoice-processor/internal/entity"
)

const sheet = "Factures"

// Headers is the fixed export column set, one column per record field.
var Headers = []string{
	"Timestamp",
	"Nom",
	"NomFournisseur",
	"DateFacture",
	"NumFacture",
	"TotalHT",
	"TotalTTC",
	"TVA",
}

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BuildWorkbook renders the rows into a single-sheet XLSX and returns the
// file bytes.
func (s *Service) BuildWorkbook(rows []entity.ExtractedInvoice) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for r, rec := range rows {
		values := []string{
			rec.CapturedAt,
			rec.ClientName,
			rec.SupplierName,
			rec.InvoiceDate,
			rec.InvoiceNumber,
			rec.TotalExcludingTax,
			rec.TotalIncludingTax,
			rec.TaxAmount,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 22) // timestamp
	_ = f.SetColWidth(sheet, "B", "C", 28) // names
	_ = f.SetColWidth(sheet, "D", "E", 16) // date, number
	_ = f.SetColWidth(sheet, "F", "H", 12) // amounts

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// Filename returns the attachment name for an export generated at ts.
func Filename(ts time.Time) string {
	return fmt.Sprintf("tally_invoices_%s.xlsx", ts.UTC().Format("20060102T150405Z"))
}
