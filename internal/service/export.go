package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/roster/internal/domain"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

const exportSheet = "Contacts"

// ParseExportFormat accepts "csv" and "xlsx". An empty value means CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidQuery, raw)
	}
}

// ContentType is the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Filename is the attachment name of the format.
func (f ExportFormat) Filename() string {
	return "data." + string(f)
}

// Export writes every contact to w. The header row is the column names in schema order.
func (s *ContactService) Export(ctx context.Context, format ExportFormat, w io.Writer) error {
	contacts, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	switch format {
	case FormatXLSX:
		return writeXLSX(w, contacts)
	default:
		return writeCSV(w, contacts)
	}
}

func exportRow(c domain.ContactRecord) []string {
	return []string{strconv.FormatInt(c.ID, 10), c.Name, c.Position, c.Location, c.EmailValue()}
}

func writeCSV(w io.Writer, contacts []domain.ContactRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range contacts {
		if err := cw.Write(exportRow(c)); err != nil {
			return fmt.Errorf("write csv row %d: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, contacts []domain.ContactRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(domain.Columns))
	for i, col := range domain.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, c := range contacts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{c.ID, c.Name, c.Position, c.Location, c.EmailValue()}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", c.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
