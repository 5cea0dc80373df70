package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"presale-tracker/models"
)

const (
	ProjectsCSV     = "projects.csv"
	TransactionsCSV = "transactions.csv"
)

// utf8BOM lets spreadsheet software detect the encoding of Chinese text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes the ranked project summaries and the transaction feed as
// two CSV files in one directory. It is safe for concurrent use.
type CSVWriter struct {
	mu  sync.Mutex
	dir string
}

// NewCSVWriter prepares dir, creating intermediate directories automatically.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// Write (re)creates both files from res.
func (c *CSVWriter) Write(res *models.AggregationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	projects := make([][]string, 0, len(res.Projects))
	for i, p := range res.Projects {
		projects = append(projects, stringify(projectCells(i+1, p)))
	}
	if err := writeCSV(filepath.Join(c.dir, ProjectsCSV), projectHeader, projects); err != nil {
		return err
	}

	txs := make([][]string, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		txs = append(txs, stringify(transactionCells(t)))
	}
	return writeCSV(filepath.Join(c.dir, TransactionsCSV), transactionHeader, txs)
}

// Close is a no-op; files are closed after every Write.
func (c *CSVWriter) Close() error { return nil }

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("csv: write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("csv: write rows to %q: %w", path, err)
	}
	return f.Close()
}
