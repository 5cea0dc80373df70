package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"presale-tracker/models"
)

const (
	WorkbookName     = "presale-report.xlsx"
	ProjectSheet     = "建案彙整"
	TransactionSheet = "最新成交"
)

// XLSXWriter writes the result as a two-sheet workbook. It is safe for
// concurrent use.
type XLSXWriter struct {
	mu   sync.Mutex
	path string
}

// NewXLSXWriter prepares dir and returns a writer targeting WorkbookName in it.
func NewXLSXWriter(dir string) (*XLSXWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	return &XLSXWriter{path: filepath.Join(dir, WorkbookName)}, nil
}

// Path returns the workbook location.
func (x *XLSXWriter) Path() string { return x.path }

// Write (re)creates the workbook from res.
func (x *XLSXWriter) Write(res *models.AggregationResult) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := BuildWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}

// Close is a no-op; the workbook is saved on every Write.
func (x *XLSXWriter) Close() error { return nil }

// BuildWorkbook renders res into an in-memory workbook.
func BuildWorkbook(res *models.AggregationResult) (*excelize.File, error) {
	f := excelize.NewFile()

	// NewFile starts with "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), ProjectSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TransactionSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: add sheet: %w", err)
	}

	if err := writeSheet(f, ProjectSheet, projectHeader, len(res.Projects), func(i int) []any {
		return projectCells(i+1, res.Projects[i])
	}); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSheet(f, TransactionSheet, transactionHeader, len(res.Transactions), func(i int) []any {
		return transactionCells(res.Transactions[i])
	}); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, n int, row func(int) []any) error {
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("xlsx: write %s header: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("xlsx: freeze %s header: %w", sheet, err)
	}

	for i := 0; i < n; i++ {
		cells := row(i)
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", sheet, i+2, err)
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("xlsx: write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
