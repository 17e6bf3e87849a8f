// Package sheets reads ledger and statement files (CSV, XLSX, XLS) into
// tables and writes reconciliation results back out as XLSX or CSV.
package sheets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/ofizant/conciliacion/internal/domain/table"
)

// ErrUnsupportedFormat is returned for file extensions no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmptyFile is returned when a file has no header row.
var ErrEmptyFile = errors.New("file has no header row")

// ReadFile opens path and reads it with Read.
func ReadFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(filepath.Base(path), f)
}

// Read parses the first sheet (or the whole CSV) of a file. name is only used
// for its extension. The first row is the header; empty cells are null and
// columns holding only plain numbers become numeric.
func Read(name string, r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var rows [][]table.Cell
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".csv", ".txt":
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return build(rows)
}

func build(rows [][]table.Cell) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	header := make([]string, len(rows[0]))
	for j, c := range rows[0] {
		header[j] = c.String()
	}

	t := table.New(header...)
	for _, r := range rows[1:] {
		t.AppendRow(r)
	}
	t.InferTypes()
	return table.Ingest(t), nil
}

func textCell(s string) table.Cell {
	if s == "" {
		return table.Null()
	}
	return table.Text(s)
}

// Separators tried when sniffing a CSV header line, in tie-break order.
var csvSeparators = []rune{';', ',', '\t', '|'}

func readCSV(data []byte) ([][]table.Cell, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode windows-1252: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]table.Cell, len(records))
	for i, rec := range records {
		rows[i] = make([]table.Cell, len(rec))
		for j, v := range rec {
			rows[i][j] = textCell(v)
		}
	}
	return rows, nil
}

// sniffSeparator picks the candidate occurring most often on the first line.
// Semicolon wins ties and is the fallback when none occurs.
func sniffSeparator(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ';', 0
	for _, sep := range csvSeparators {
		if n := bytes.Count(line, []byte(string(sep))); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

func readXLSX(data []byte) ([][]table.Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	formatted, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]table.Cell, len(formatted))
	for i, r := range formatted {
		rows[i] = make([]table.Cell, len(r))
		for j, shown := range r {
			value := shown
			if i < len(raw) && j < len(raw[i]) {
				value = raw[i][j]
			}
			rows[i][j] = xlsxCell(shown, value)
		}
	}
	return rows, nil
}

// xlsxCell keeps the stored value of numeric cells so number formats do not
// leak into amounts, and turns numeric cells displayed as dates into dates.
func xlsxCell(shown, value string) table.Cell {
	if value == "" {
		return textCell(shown)
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return textCell(shown)
	}
	if shown != value && looksLikeDate(shown) {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return table.Date(t)
		}
	}
	return table.Text(value)
}

func looksLikeDate(s string) bool {
	if strings.ContainsAny(s, "/:") {
		return true
	}
	return len(s) > 1 && s[0] != '-' && strings.Contains(s[1:], "-")
}

func readXLS(data []byte) ([][]table.Cell, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}

	var rows [][]table.Cell
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]table.Cell, row.LastCol())
		for j := range cells {
			cells[j] = textCell(row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
