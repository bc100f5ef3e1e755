// Package sheet decodes uploaded .xlsx workbooks into odour tables.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/odour.report/internal/odour"
)

// ErrNoSheets is returned for a workbook without any worksheet.
var ErrNoSheets = errors.New("workbook has no sheets")

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("workbook exceeds upload limit")

// Decode reads the first sheet of an .xlsx workbook. Every row is returned
// as strings, padded to the width of the widest row so column positions
// line up with the header.
func Decode(r io.Reader) (odour.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return odour.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return odour.Table{}, ErrNoSheets
	}

	// Stored values, not number-format display text.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return odour.Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}

	return odour.Table{Rows: rows}, nil
}

// DecodeLimited is Decode with an upper bound on the number of bytes read.
func DecodeLimited(r io.Reader, maxBytes int64) (odour.Table, error) {
	lr := &io.LimitedReader{R: r, N: maxBytes + 1}
	buf, err := io.ReadAll(lr)
	if err != nil {
		return odour.Table{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > maxBytes {
		return odour.Table{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return Decode(bytes.NewReader(buf))
}

// Encode writes t as a single-sheet workbook.
func Encode(w io.Writer, t odour.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	name := f.GetSheetName(0)
	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Template returns the empty upload layout: a title row followed by the
// required column headers.
func Template() odour.Table {
	return odour.Table{Rows: [][]string{
		{"Odour observations"},
		append([]string(nil), odour.RequiredColumns...),
	}}
}
