package sheets

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ofizant/conciliacion/internal/domain/table"
)

// Sheet names of exported workbooks.
const (
	DetailSheet  = "Detalle"
	SummarySheet = "Resumen"
)

// WriteWorkbook writes the detail and summary tables as a two-sheet XLSX
// workbook. The detail header row is frozen and carries an auto filter.
func WriteWorkbook(w io.Writer, detail, summary *table.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), DetailSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	if err := writeSheet(f, DetailSheet, detail); err != nil {
		return fmt.Errorf("write %s: %w", DetailSheet, err)
	}
	if err := writeSheet(f, SummarySheet, summary); err != nil {
		return fmt.Errorf("write %s: %w", SummarySheet, err)
	}

	if err := f.SetPanes(DetailSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if cols := len(detail.Columns()); cols > 0 {
		last, err := excelize.CoordinatesToCellName(cols, detail.Len()+1)
		if err != nil {
			return err
		}
		if err := f.AutoFilter(DetailSheet, "A1:"+last, nil); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, sheet string, t *table.Table) error {
	header := make([]interface{}, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		values := make([]interface{}, 0, len(header))
		for _, c := range t.Row(i) {
			values = append(values, exportValue(c))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// exportValue writes dates as ISO text so they read back unchanged.
func exportValue(c table.Cell) interface{} {
	switch c.Kind() {
	case table.KindNull:
		return nil
	case table.KindNumber:
		f, _ := c.Float()
		return f
	default:
		return c.String()
	}
}

// WriteCSV writes t as semicolon-separated UTF-8 text.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	record := make([]string, len(t.Columns()))
	for i := 0; i < t.Len(); i++ {
		for j, c := range t.Row(i) {
			record[j] = c.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
