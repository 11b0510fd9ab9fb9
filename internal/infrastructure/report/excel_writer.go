// Package report renders expense lists as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

const timeLayout = "2006-01-02 15:04:05"

// Columns of the expense sheet, in order
var Columns = []string{"ID", "Title", "Employee", "Amount", "Status", "Created", "Updated"}

// ExcelWriter writes expense lists as XLSX workbooks. Implements port.ExpenseReportWriter.
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new Excel writer
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// WriteExpenses writes one header row and one row per expense to a single sheet
func (ew *ExcelWriter) WriteExpenses(w io.Writer, sheet string, expenses []*entity.ExpenseRequest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, e := range expenses {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			e.ID,
			e.Title,
			e.OwnerName,
			e.Amount.InexactFloat64(),
			string(e.Status),
			e.CreatedAt.UTC().Format(timeLayout),
			e.UpdatedAt.UTC().Format(timeLayout),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write expense %d: %w", e.ID, err)
		}
		amountCell, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(sheet, amountCell, amountCell, money); err != nil {
			ew.logger.Warn("Failed to style amount cell", zap.String("cell", amountCell), zap.Error(err))
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	ew.logger.Info("Expense report written",
		zap.String("sheet", sheet),
		zap.Int("rows", len(expenses)))
	return nil
}
