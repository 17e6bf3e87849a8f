// Package normalizer turns raw ledger and statement tables into canonical
// records with a parsed date, a parsed amount, a sign and a row id.
//
// Rows whose date or amount cannot be parsed are dropped, not reported as
// errors. Row ids are assigned after filtering and are dense from zero.
//
// Example usage:
//
//	n, err := normalizer.Normalize(ledgerTable, normalizer.LedgerSchema)
//	if err != nil {
//		var schemaErr *normalizer.SchemaError
//		...
//	}
//	for _, rec := range n.Records {
//		fmt.Println(rec.RowID, rec.Date, rec.Amount)
//	}
package normalizer

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ofizant/conciliacion/internal/domain/table"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// InputDateLayout is the day/month/year text layout of both input files.
// Single-digit day and month are accepted.
const InputDateLayout = "2/1/2006"

// Record is one canonical ledger or statement row.
type Record struct {
	RowID  int
	Source Source
	Date   time.Time
	Amount float64
	Sign   int
	// Fields holds the original values, aligned with Schema.Columns.
	Fields []table.Cell
}

// Normalized is the canonical form of one input table.
type Normalized struct {
	Schema  Schema
	Records []Record
	// Dropped counts rows excluded because of an unparseable date or amount.
	Dropped int
}

// Normalize validates t against s and parses every row.
func Normalize(t *table.Table, s Schema) (*Normalized, error) {
	if err := Validate(t, s); err != nil {
		return nil, err
	}

	out := &Normalized{Schema: s, Records: make([]Record, 0, t.Len())}
	for i := 0; i < t.Len(); i++ {
		date, err := ParseDate(t.Get(i, s.DateColumn))
		if err != nil {
			out.Dropped++
			continue
		}
		amount, err := ParseAmount(t.Get(i, s.AmountColumn))
		if err != nil {
			out.Dropped++
			continue
		}

		fields := make([]table.Cell, len(s.Columns))
		for k, c := range s.Columns {
			fields[k] = t.Get(i, c)
		}

		out.Records = append(out.Records, Record{
			RowID:  len(out.Records),
			Source: s.Source,
			Date:   date,
			Amount: amount,
			Sign:   Sign(amount),
			Fields: fields,
		})
	}

	return out, nil
}

// ParseDate reads a day/month/year text cell or a date cell.
// The result is truncated to midnight UTC.
func ParseDate(c table.Cell) (time.Time, error) {
	switch c.Kind() {
	case table.KindDate:
		t, _ := c.Time()
		return truncateDay(t), nil
	case table.KindText:
		t, err := time.Parse(InputDateLayout, strings.TrimSpace(c.String()))
		if err != nil {
			return time.Time{}, ErrInvalidDate
		}
		return t, nil
	default:
		return time.Time{}, ErrInvalidDate
	}
}

// ParseAmount reads a numeric cell as is. Text cells use "." as the
// thousands separator and "," as the decimal separator: "1.234,56" is 1234.56.
func ParseAmount(c table.Cell) (float64, error) {
	switch c.Kind() {
	case table.KindNumber:
		f, _ := c.Float()
		if math.IsInf(f, 0) {
			return 0, ErrInvalidAmount
		}
		return f, nil
	case table.KindText:
		s := strings.ReplaceAll(c.String(), ".", "")
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		return d.InexactFloat64(), nil
	default:
		return 0, ErrInvalidAmount
	}
}

// Sign returns -1, 0 or 1.
func Sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// DayDiff returns the absolute number of whole days between two dates.
func DayDiff(a, b time.Time) int {
	d := int(math.Round(truncateDay(a).Sub(truncateDay(b)).Hours() / 24))
	if d < 0 {
		return -d
	}
	return d
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
