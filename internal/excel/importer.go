package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/wordcards/internal/database"
	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	SourceColumn  string // Column with the Russian term
	TargetColumn  string // Column with the English translation
	ExampleColumn string // Column with the usage example, optional
	SheetName     string // Name of the sheet to import, Excel only
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SourceColumn:  "A",
		TargetColumn:  "B",
		ExampleColumn: "C",
		SheetName:     "Sheet1",
		StartRow:      2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

type columns struct {
	source, target, example int // zero-based; example is -1 when unused
}

// ImportWords reads global words from an Excel or CSV file and adds the
// ones not yet in the catalog
func ImportWords(ctx context.Context, db *sqlx.DB, config ImportConfig) (*ImportResult, error) {
	words, result, err := ReadWords(config)
	if err != nil {
		return nil, err
	}

	created, err := database.Seed(ctx, db, words)
	if err != nil {
		return nil, fmt.Errorf("failed to store words: %w", err)
	}

	result.Created = created
	result.Skipped += len(words) - created
	return result, nil
}

// ReadWords parses the file without touching the store. Malformed rows are
// reported in the result and left out of the returned words.
func ReadWords(config ImportConfig) ([]database.SeedWord, *ImportResult, error) {
	cols, err := config.columns()
	if err != nil {
		return nil, nil, err
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var words []database.SeedWord

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 || blank(row) {
			continue
		}

		result.TotalProcessed++

		word, err := parseRow(row, cols)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			result.Skipped++
			continue
		}
		words = append(words, word)
	}

	return words, result, nil
}

func (c ImportConfig) columns() (columns, error) {
	source, err := columnIndex(c.SourceColumn)
	if err != nil {
		return columns{}, err
	}
	target, err := columnIndex(c.TargetColumn)
	if err != nil {
		return columns{}, err
	}

	example := -1
	if c.ExampleColumn != "" {
		if example, err = columnIndex(c.ExampleColumn); err != nil {
			return columns{}, err
		}
	}

	return columns{source: source, target: target, example: example}, nil
}

func columnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(name))
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", name, err)
	}
	return n - 1, nil
}

func parseRow(row []string, cols columns) (database.SeedWord, error) {
	word := database.SeedWord{
		Source: cell(row, cols.source),
		Target: cell(row, cols.target),
	}
	if cols.example >= 0 {
		word.Example = cell(row, cols.example)
	}

	if word.Source == "" || word.Target == "" {
		return database.SeedWord{}, errors.New("word and translation are required")
	}
	return word, nil
}

// readExcel loads the rows of a sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV loads every record of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
