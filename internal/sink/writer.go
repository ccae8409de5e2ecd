// Package sink writes finished tables to files.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/iasflat/internal/model"
	"github.com/xuri/excelize/v2"
)

// Writer encodes one table
type Writer interface {
	// Ext is the file extension including the dot
	Ext() string
	Write(w io.Writer, t *model.Table) error
}

// NewWriter returns the writer for a configured output format
func NewWriter(format string) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "tsv", "csv":
		return TSVWriter{}, nil
	case "xlsx", "excel":
		return XLSXWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: tsv, xlsx)", format)
	}
}

// TSVWriter writes tab-delimited text with one header row. Files keep the
// .csv extension downstream loaders expect. Null cells are empty fields.
type TSVWriter struct{}

// Ext implements Writer
func (TSVWriter) Ext() string { return ".csv" }

// Write implements Writer
func (TSVWriter) Write(w io.Writer, t *model.Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// maxSheetRows is the worksheet row limit, header included
const maxSheetRows = excelize.TotalRows

// XLSXWriter writes a workbook with a single sheet named after the table.
// Null cells are left empty.
type XLSXWriter struct{}

// Ext implements Writer
func (XLSXWriter) Ext() string { return ".xlsx" }

// Write implements Writer
func (XLSXWriter) Write(w io.Writer, t *model.Table) error {
	if t.Len()+1 > maxSheetRows {
		return fmt.Errorf("%s has %d rows, more than a worksheet holds", t.Name, t.Len())
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := string(t.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			if v.Valid {
				cells[i] = v.S
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}
