// pkg/extract/reader.go
package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Table is the raw contents of one extract file. Every cell is a string; no
// typing happens before normalization.
type Table struct {
	SourceFile string
	Header     []string
	Rows       [][]string
}

// ReadExtract reads an extract file into a Table. The first row of every
// export is a banner and is discarded; the second row is the header. Header
// cells can contain embedded line breaks (bilingual labels), so each is
// collapsed to its first line and trimmed.
func ReadExtract(path string, logger *zap.Logger) (*Table, error) {
	var raw [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		raw, err = readXLSX(path)
	case ".csv":
		raw, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported extract file type: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(raw) < 2 {
		return nil, fmt.Errorf("extract %s has no header row", path)
	}

	header := make([]string, len(raw[1]))
	for i, cell := range raw[1] {
		header[i] = collapseHeaderCell(cell)
	}

	rows := raw[2:]
	for i, row := range rows {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			rows[i] = padded
		}
	}

	logger.Info("Read extract file",
		zap.String("file", path),
		zap.Int("columns", len(header)),
		zap.Int("rows", len(rows)))

	return &Table{
		SourceFile: path,
		Header:     header,
		Rows:       rows,
	}, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return f.GetRows(sheets[0])
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // exports pad trailing columns inconsistently
	return r.ReadAll()
}

func collapseHeaderCell(cell string) string {
	if i := strings.IndexAny(cell, "\r\n"); i >= 0 {
		cell = cell[:i]
	}
	return strings.TrimSpace(cell)
}
