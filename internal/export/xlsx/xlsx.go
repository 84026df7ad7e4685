// Package xlsx exports the star schema as one workbook with a sheet per table.
package xlsx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"evstar/internal/star"
)

// maxRows is the worksheet row limit, header included.
const maxRows = excelize.TotalRows

// Write saves tables to path, one sheet per table in the given order. Null
// cells are left blank.
func Write(path string, tables []star.Named) error {
	if len(tables) == 0 {
		return fmt.Errorf("xlsx: no tables to export")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("xlsx: mkdir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, n := range tables {
		if n.Table.Len()+1 > maxRows {
			return fmt.Errorf("xlsx: %s has %d rows, sheet limit is %d", n.Name, n.Table.Len(), maxRows-1)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), n.Name); err != nil {
				return fmt.Errorf("xlsx: sheet %s: %w", n.Name, err)
			}
		} else if _, err := f.NewSheet(n.Name); err != nil {
			return fmt.Errorf("xlsx: sheet %s: %w", n.Name, err)
		}
		if err := writeSheet(f, n); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, n star.Named) error {
	sw, err := f.NewStreamWriter(n.Name)
	if err != nil {
		return fmt.Errorf("xlsx: stream %s: %w", n.Name, err)
	}

	names := n.Table.ColumnNames()
	header := make([]any, len(names))
	for i, c := range names {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("xlsx: %s header: %w", n.Name, err)
	}

	cells := make([]any, len(names))
	for r := 0; r < n.Table.Len(); r++ {
		for i, v := range n.Table.Row(r) {
			cells[i] = v.Any()
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", n.Name, r+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush %s: %w", n.Name, err)
	}
	return nil
}
