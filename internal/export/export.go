// Package export writes table contents as CSV or XLSX.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/user/equipment-scraper/internal/entity"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown export format")

// maxSheetName is Excel's limit on worksheet names.
const maxSheetName = 31

// ParseFormat accepts "csv" or "xlsx" in any case. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write encodes data in format f.
func Write(w io.Writer, f Format, data *entity.TableData) error {
	switch f {
	case CSV:
		return WriteCSV(w, data)
	case XLSX:
		return WriteXLSX(w, data)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteCSV writes a header row followed by every row; NULL becomes an empty cell.
func WriteCSV(w io.Writer, data *entity.TableData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(data.Columns))
	for _, row := range data.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = *row[i]
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes one worksheet named after the table with a bold header row.
func WriteXLSX(w io.Writer, data *entity.TableData) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(data.Table)
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(data.Columns))
	for i, c := range data.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if len(data.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(data.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for r, row := range data.Rows {
		cells := make([]any, len(data.Columns))
		for i := range cells {
			if i < len(row) && row[i] != nil {
				cells[i] = *row[i]
			}
		}
		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	for i := range data.Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, 20)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func sheetName(table string) string {
	if table == "" {
		return "Sheet1"
	}
	if len(table) > maxSheetName {
		return table[:maxSheetName]
	}
	return table
}
