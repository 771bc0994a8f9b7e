// Package export renders flat record tables to the supported output
// targets: tab-separated terminal output, CSV, JSON and XLSX files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"
)

// Table is the flat shape every listing command reduces its records to.
type Table struct {
	Headers []string
	Rows    [][]string
}

// WriteTab renders the table for terminal display.
func WriteTab(w io.Writer, table Table) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)
	for i, h := range table.Headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, row := range table.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func WriteCSV(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteXLSX writes the table as a single-sheet workbook.
func WriteXLSX(path, sheet string, table Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	writeRow := func(rowIdx int, cells []string) error {
		for colIdx, cell := range cells {
			name, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, name, cell); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, table.Headers); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := writeRow(i+2, row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
